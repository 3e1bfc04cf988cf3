// Package constants provides shared constants used throughout the assetpipe codebase.
// This includes naming delimiters, merge suffixes, limits, file permissions and other
// values that must stay consistent between the merge engine, the snapshot store and the CLI.
package constants

import "time"

// Naming constants define how entity names are decorated during a merge
const (
	// NameDelimiter separates a task layer prefix from a sub-item name (e.g. "RIG-Armature")
	NameDelimiter = "-"

	// MergeDelimiter separates an entity name from its transient merge suffix
	MergeDelimiter = "."

	// LocalSuffix marks entities that came from the local working copy
	LocalSuffix = "LOCAL"

	// ExternalSuffix marks entities that were imported from the external snapshot
	ExternalSuffix = "EXTERNAL"

	// CollisionMarker is appended to an entity whose name blocks a suffix rename
	CollisionMarker = ".OLD"

	// RemappedMarker is appended to a discarded entity after its users were remapped
	RemappedMarker = "_Users_Remapped"

	// MaxNameLength is the longest entity name that still leaves room for a merge suffix
	MaxNameLength = 59
)

// Ownership constants
const (
	// NoOwner is the owner value of entities that no task layer has claimed
	NoOwner = "NONE"

	// MaterialRecordName is the name of the single material slot record per item
	MaterialRecordName = "All Materials"

	// ParentRecordName is the name of the single parent record per item
	ParentRecordName = "Parent Relationship"

	// MaterialIndexAttribute is the per-face attribute that travels with material slots
	MaterialIndexAttribute = "material_index"
)

// File name constants
const (
	// TaskLayerConfigName is the task layer file found at the root of an asset directory
	TaskLayerConfigName = "task_layers.json"

	// TaskLayerConfigYAMLName is the YAML variant of the task layer file
	TaskLayerConfigYAMLName = "task_layers.yaml"

	// HookFileName is the file name looked up in every hook directory
	HookFileName = "hooks.yaml"

	// SnapshotExtension is the extension of snapshot files written by the store
	SnapshotExtension = ".yaml"

	// BackupSuffix is appended to the working copy name for pre-merge backups
	BackupSuffix = "_Asset_Pipe_Backup"

	// VersionDelimiter separates an asset name from its publish version ("chair-v003.yaml")
	VersionDelimiter = "-"
)

// Publish type constants name the directories published versions live in
const (
	// PublishActive holds the active published versions
	PublishActive = "publish"

	// PublishStaged holds staged versions that replace the active one as sync target
	PublishStaged = "staged"

	// PublishReview holds review versions that are never used as sync target
	PublishReview = "review"
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// ExecutablePermissions is for executable files (rwxr-xr-x)
	ExecutablePermissions = 0755
)

// Timeout constants
const (
	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// HookTimeout bounds a single file-based hook command
	HookTimeout = 2 * time.Minute

	// ShutdownTimeout is how long graceful shutdown may take
	ShutdownTimeout = 5 * time.Second

	// WatchDebounce coalesces bursts of hook file events
	WatchDebounce = 250 * time.Millisecond
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for parsed snapshots
	CacheTTL = 15 * time.Minute

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 5 * time.Minute
)

// Format constants
const (
	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)
