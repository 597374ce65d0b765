package uow

import "context"

// Runner runs a function inside one storage transaction. The postgres store
// implements it with a serializable pgx transaction; test fakes run the
// function directly.
type Runner interface {
	RunTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// AfterCommit is a function that runs after a successful transaction commit.
type AfterCommit func(ctx context.Context)

// UoW represents a unit of work.
type UoW struct {
	runner Runner
}

func New(runner Runner) *UoW {
	return &UoW{runner: runner}
}

// Do runs fn inside the transaction. After a successful commit,
// it executes all after-commit hooks.
func (u *UoW) Do(
	ctx context.Context,
	fn func(ctx context.Context, after func(AfterCommit)) error,
) error {
	var hooks []AfterCommit

	err := u.runner.RunTx(ctx, func(ctx context.Context) error {
		// A retried transaction runs fn again; only the last run's hooks
		// may fire.
		hooks = hooks[:0]
		return fn(ctx, func(h AfterCommit) {
			hooks = append(hooks, h)
		})
	})
	if err != nil {
		return err
	}

	for _, h := range hooks {
		h(ctx)
	}

	return nil
}
