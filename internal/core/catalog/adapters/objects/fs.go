package objects

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kosaka-studio/mediarepo/internal/apperr"
	"github.com/kosaka-studio/mediarepo/internal/core/catalog/ports"
)

// FSRepository implements ports.ObjectsRepository over the local
// filesystem, addressing objects by a "file://<root>/<relative path>" URL.
type FSRepository struct {
	root string
}

// NewFSRepository binds a filesystem ObjectsRepository to root, creating it
// if it does not already exist.
func NewFSRepository(root string) (*FSRepository, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}
	if err := os.MkdirAll(absRoot, 0755); err != nil {
		return nil, fmt.Errorf("create root directory: %w", err)
	}
	return &FSRepository{root: absRoot}, nil
}

func (r *FSRepository) Scheme() string { return "file" }

func (r *FSRepository) path(url string) (string, error) {
	prefix := "file://" + r.root + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", fmt.Errorf("url %q is not rooted at %q", url, r.root)
	}
	rel := strings.TrimPrefix(url, prefix)
	full := filepath.Join(r.root, rel)
	if !strings.HasPrefix(full, r.root) {
		return "", fmt.Errorf("url %q escapes storage root", url)
	}
	return full, nil
}

func (r *FSRepository) url(full string) string {
	rel := strings.TrimPrefix(full, r.root+string(filepath.Separator))
	return "file://" + r.root + "/" + filepath.ToSlash(rel)
}

func (r *FSRepository) Get(ctx context.Context, url string) (ports.Entry, io.ReadCloser, error) {
	full, err := r.path(url)
	if err != nil {
		return ports.Entry{}, nil, apperr.Wrap(err)
	}

	info, err := os.Stat(full)
	if os.IsNotExist(err) {
		return ports.Entry{}, nil, &apperr.ObjectNotFound{URL: url}
	}
	if err != nil {
		return ports.Entry{}, nil, &apperr.ObjectGetFailed{URL: url, Err: err}
	}

	file, err := os.Open(full)
	if err != nil {
		return ports.Entry{}, nil, &apperr.ObjectGetFailed{URL: url, Err: err}
	}

	return ports.Entry{
		Name: filepath.Base(full),
		URL:  url,
		Kind: ports.EntryKindObject,
		Metadata: &ports.EntryMetadata{
			Size:       info.Size(),
			ModifiedAt: info.ModTime(),
		},
	}, file, nil
}

func (r *FSRepository) Put(ctx context.Context, url string, data io.Reader, overwrite ports.OverwritePolicy) (ports.Entry, error) {
	full, err := r.path(url)
	if err != nil {
		return ports.Entry{}, apperr.Wrap(err)
	}

	if overwrite == ports.OverwritePolicyFail {
		if _, err := os.Stat(full); err == nil {
			return ports.Entry{}, &apperr.ObjectAlreadyExists{URL: url}
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return ports.Entry{}, &apperr.ObjectPutFailed{URL: url, Err: err}
	}

	file, err := os.Create(full)
	if err != nil {
		return ports.Entry{}, &apperr.ObjectPutFailed{URL: url, Err: err}
	}
	defer file.Close()

	written, err := io.Copy(file, data)
	if err != nil {
		return ports.Entry{}, &apperr.ObjectPutFailed{URL: url, Err: err}
	}

	return ports.Entry{
		Name: filepath.Base(full),
		URL:  url,
		Kind: ports.EntryKindObject,
		Metadata: &ports.EntryMetadata{
			Size: written,
		},
	}, nil
}

func (r *FSRepository) List(ctx context.Context, prefixURL string) ([]ports.Entry, error) {
	full, err := r.path(prefixURL)
	if err != nil {
		return nil, apperr.Wrap(err)
	}

	var entries []ports.Entry
	err = filepath.Walk(full, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if path == full {
			return nil
		}

		kind := ports.EntryKindObject
		if info.IsDir() {
			kind = ports.EntryKindContainer
		}
		entries = append(entries, ports.Entry{
			Name: info.Name(),
			URL:  r.url(path),
			Kind: kind,
			Metadata: &ports.EntryMetadata{
				Size:       info.Size(),
				ModifiedAt: info.ModTime(),
			},
		})
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(fmt.Errorf("list entries: %w", err))
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (r *FSRepository) Delete(ctx context.Context, url string) (bool, error) {
	full, err := r.path(url)
	if err != nil {
		return false, apperr.Wrap(err)
	}

	if _, err := os.Stat(full); os.IsNotExist(err) {
		return false, nil
	}

	if err := os.Remove(full); err != nil {
		return false, apperr.Wrap(fmt.Errorf("delete file: %w", err))
	}
	return true, nil
}
