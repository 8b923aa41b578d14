package audit

import "path"

// SourceFile holds the facts extracted from one file.
type SourceFile struct {
	Path           string   `json:"path"`
	StatementCount int      `json:"statementCount"`
	ImportTargets  []string `json:"importTargets"` // sorted, no duplicates
}

// Name returns the file's base name.
func (f SourceFile) Name() string { return path.Base(f.Path) }

// Component is a directory that directly contains the package marker.
type Component struct {
	Path           string       `json:"path"`
	StatementCount int          `json:"statementCount"`
	Files          []SourceFile `json:"files"` // discovery order
}

// LeafName returns the final segment of the component path.
func (c Component) LeafName() string { return path.Base(c.Path) }

// Snapshot is the global aggregate of one run.
type Snapshot struct {
	StatementCount int         `json:"statementCount"`
	Components     []Component `json:"components"`
}

// Category classifies a Finding.
type Category string

const (
	CategoryFileSize               Category = "FileSize"
	CategoryComponentOutlier       Category = "ComponentOutlier"
	CategoryComponentSize          Category = "ComponentSize"
	CategoryImportBoundary         Category = "ImportBoundary"
	CategoryDuplicateComponentName Category = "DuplicateComponentName"
	CategoryDuplicateFileName      Category = "DuplicateFileName"
	CategoryMisplacedFile          Category = "MisplacedFile"
	CategorySkippedFile            Category = "SkippedFile"
)

// categoryOrder fixes the grouping order of report output.
var categoryOrder = []Category{
	CategorySkippedFile,
	CategoryFileSize,
	CategoryComponentOutlier,
	CategoryComponentSize,
	CategoryImportBoundary,
	CategoryDuplicateComponentName,
	CategoryDuplicateFileName,
	CategoryMisplacedFile,
}

// Finding is one non-fatal rule violation.
type Finding struct {
	Category Category `json:"category"`
	Message  string   `json:"message"`
	Paths    []string `json:"paths"`
}
