/*
Package ports defines the driven ports (interfaces) of the dockwise interpreter.

These interfaces decouple the dialog core from external implementations, so
fragments can come from disk or memory, utterances can be classified by any
NLU service, and run settings can live in any document store.

# Key Interfaces

  - FragmentResolver: resolves import and dialog references while assembling a flow.
  - Classifier: turns an utterance into a domain.NLUResult.
  - SettingsStore: persists per-image run settings.
*/
package ports
