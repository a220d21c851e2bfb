/*
Package dsl provides a Go DSL for programmatically constructing Stepwise catalogs.

It allows developers to define workflows with a type-safe, fluent builder
instead of relying on external YAML or Markdown files. This is particularly
useful for generated workflows and unit tests.

Example usage:

	catalog := dsl.New("Churn review").
		Intro("Let's look at last month's churn.")

	catalog.Research("Pull cancellations by plan").
		Detail("Source: billing export").
		Then().
		Playbook("Compare against the retention playbook").
		Gate("Proceed with the win-back campaign?").
		Then().
		Action("Schedule the campaign")

	engine, err := stepwise.New(stepwise.WithLoader(catalog.Build()))
*/
package dsl
