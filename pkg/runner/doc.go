/*
Package runner hosts dockwise conversations on a terminal or a pipe.

It is the bridge between the Engine and the outside world: an IOHandler
supplies user lines and displays responses, the Runner wires it into a
conversation, installs signal handling and turns the normal ways a
conversation ends (an exit action, end of input) into a clean return.

# Key Components

  - Runner: runs one conversation with a handler.
  - TextHandler: interactive or piped plain-text IO.
  - JSONHandler: JSON-Lines IO for scripts and other programs.
  - ActionInterceptor: asks before selected actions run.

# Usage

	handler := runner.NewTextHandler(os.Stdin, os.Stdout,
		runner.WithTextHandlerRenderer(renderer),
	)
	r := runner.NewRunner(
		runner.WithInputHandler(handler),
		runner.WithLogger(logger),
	)

	if _, err := r.Run(ctx, engine); err != nil {
		log.Fatal(err)
	}
*/
package runner
