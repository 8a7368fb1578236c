/*
Package dsl builds dockwise flows in Go instead of YAML files.

Fragments are declared on a Builder under the reference other fragments use
to reach them, then compiled into a resolver for dockwise.New:

	b := dsl.New()

	main := b.Dialog("main")
	main.Welcome("Hi! Say *list* to see your images.")
	main.Entry("list").
		Intent("list_images").
		Pre("images.list").
		Say("{{attributes.result}}")
	main.Entry("run").
		Intent("run_image").
		Dialog("run")
	main.Import("common")
	main.Otherwise("Sorry?")

	b.Stack("common").Entry("bye").Intent("goodbye").Say("Bye!").Do("exit")

	resolver, err := b.Build()
	// ... dockwise.New(resolver, reg)
*/
package dsl
