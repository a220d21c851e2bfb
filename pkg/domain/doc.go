/*
Package domain contains the core domain models of the Stepwise engine.

It defines the fundamental entities of the approval workflow, such as Steps, the
Catalog that orders them, and the per-session execution State. This package is kept
pure and free of external dependencies like I/O or persistence, following Hexagonal
Architecture principles.

# Key Entities

  - Step: A narrated unit of work, optionally gated by operator approval.
  - Catalog: The ordered, validated, immutable list of Steps (indices 0..N-1).
  - SessionState: Progress of one run (current index, completed indices, pause flag, generation).
  - Decision: An operator input (approve, reject, skip, branch resolution, feedback).
  - RevealFrame: One incremental rendering of a step's text.
  - ViewModel / Message: What the host surface is asked to render or post.
*/
package domain
