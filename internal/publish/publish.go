// Package publish manages the versioned copies of an asset.
//
// Published versions live in one directory per type at the root of the
// asset directory, next to the working files:
//
//	chair/
//	  chair-modeling.yaml
//	  publish/chair-v001.yaml
//	  staged/chair-v002.yaml
//	  review/chair-v001.yaml
//
// The sync target of a push or pull is the latest staged version if any
// version is staged, otherwise the latest active publish.
package publish

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/agentstation/assetpipe/pkg/asset"
	"github.com/agentstation/assetpipe/pkg/constants"
	"github.com/agentstation/assetpipe/pkg/errors"
)

// Type is a publish type. Each type has its own directory.
type Type string

// Publish types.
const (
	Active Type = constants.PublishActive
	Staged Type = constants.PublishStaged
	Review Type = constants.PublishReview
)

// Types lists every publish type.
var Types = []Type{Active, Staged, Review}

// String returns the string representation of a publish type.
func (t Type) String() string {
	return string(t)
}

// ParseType parses a publish type name.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !slices.Contains(Types, t) {
		return "", errors.NewValidationError("type", s, "must be one of publish, staged, review")
	}
	return t, nil
}

// Dir returns the directory of publish type t in assetDir.
func Dir(assetDir string, t Type) string {
	return filepath.Join(assetDir, string(t))
}

// FileVersion returns the version number in a published file name such as
// "chair-v003.yaml". The older "chair.v003.yaml" form is accepted too.
func FileVersion(path string) (int, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	idx := strings.LastIndex(stem, constants.VersionDelimiter+"v")
	if idx < 0 {
		idx = strings.LastIndex(stem, ".v")
	}
	if idx < 0 {
		return 0, errors.NewValidationError("file", path, "no version in published file name")
	}
	n, err := strconv.Atoi(stem[idx+2:])
	if err != nil || n < 1 {
		return 0, errors.NewValidationError("file", path, "invalid version in published file name")
	}
	return n, nil
}

// FileName returns the published file name of version n of assetName.
func FileName(assetName string, n int) string {
	return fmt.Sprintf("%s%sv%03d%s", assetName, constants.VersionDelimiter, n, constants.SnapshotExtension)
}

// All returns the published files of type t, oldest first. Files whose name
// carries no version are skipped. A missing directory yields no files.
func All(assetDir string, t Type) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(Dir(assetDir, t), "*"+constants.SnapshotExtension))
	if err != nil {
		return nil, err
	}
	type versioned struct {
		path    string
		version int
	}
	var files []versioned
	for _, m := range matches {
		v, err := FileVersion(m)
		if err != nil {
			continue
		}
		files = append(files, versioned{m, v})
	}
	slices.SortFunc(files, func(a, b versioned) int { return a.version - b.version })

	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.path
	}
	return out, nil
}

// Latest returns the newest published file of type t, or "" when there is
// none.
func Latest(assetDir string, t Type) (string, error) {
	files, err := All(assetDir, t)
	if err != nil || len(files) == 0 {
		return "", err
	}
	return files[len(files)-1], nil
}

// IsStaged reports whether assetDir holds a staged version.
func IsStaged(assetDir string) bool {
	latest, err := Latest(assetDir, Staged)
	return err == nil && latest != ""
}

// SyncTarget returns the file pushes and pulls merge with.
func SyncTarget(assetDir string) (string, error) {
	for _, t := range []Type{Staged, Active} {
		latest, err := Latest(assetDir, t)
		if err != nil {
			return "", err
		}
		if latest != "" {
			return latest, nil
		}
	}
	return "", errors.NewNotFoundError("sync target", assetDir)
}

// NextPath returns where the next version of type t is written.
func NextPath(assetDir, assetName string, t Type) (string, error) {
	latest, err := Latest(assetDir, t)
	if err != nil {
		return "", err
	}
	next := 1
	if latest != "" {
		v, err := FileVersion(latest)
		if err != nil {
			return "", err
		}
		next = v + 1
	}
	return filepath.Join(Dir(assetDir, t), FileName(assetName, next)), nil
}

// Saver writes a document to a file.
type Saver interface {
	Save(doc *asset.Document, path string) error
}

// Publisher writes new published versions.
type Publisher struct {
	saver     Saver
	catalogID string
}

// NewPublisher returns a Publisher saving through saver. Active publishes
// are marked as assets with catalogID.
func NewPublisher(saver Saver, catalogID string) *Publisher {
	return &Publisher{saver: saver, catalogID: catalogID}
}

// Create writes doc as the next version of type t in assetDir and returns
// its path. The document's asset root is marked as an asset in the written
// copy of an active publish only.
func (p *Publisher) Create(doc *asset.Document, assetDir string, t Type) (string, error) {
	root := doc.Root()
	if root == nil {
		return "", errors.NewValidationError("root", nil, "document has no asset root to publish")
	}
	path, err := NextPath(assetDir, root.Name, t)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return "", errors.NewResourceError("publish", "version", path, errors.ErrAlreadyExists)
	}

	previous := root.Asset
	if t == Active {
		root.Asset = &asset.AssetMark{CatalogID: p.catalogID}
	}
	defer func() { root.Asset = previous }()

	if err := p.saver.Save(doc, path); err != nil {
		return "", err
	}
	return path, nil
}
