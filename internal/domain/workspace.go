package domain

// WorkspaceSpec describes a workspace to initialise.
type WorkspaceSpec struct {
	Root string
}
