// Package runtime holds the workflow core: the pure Advancement Controller,
// the Reveal Renderer and the presenters that turn session state into views
// and rejection-thread messages. Nothing here performs I/O.
package runtime
