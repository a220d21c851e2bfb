/*
Package ports defines the driven ports (interfaces) for the Stepwise engine.

These interfaces decouple the core logic from external implementations, allowing
the engine to work with various storage backends, catalog sources and host surfaces.

# Key Interfaces

  - CatalogLoader: Responsible for building the step Catalog (e.g., from YAML or Loam).
  - SessionStore: Responsible for persisting and loading SessionState.
  - Surface: Renders views and posts threaded messages for the operator.
  - DistributedLocker: Provides distributed locking for handling concurrent session access.
*/
package ports
