package driver

import (
	"bytes"
	"context"
	"path"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/url"
)

// Installed describes a driver file in the local store.
type Installed struct {
	Family   string    `json:"family"`
	FileName string    `json:"fileName"`
	Version  string    `json:"version"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
	URL      string    `json:"url"`
}

var fileNameExpr = regexp.MustCompile(`^(.+)-(\d.*)\.([A-Za-z0-9]+)$`)

// Store keeps driver files under <root>/<family>/.
type Store struct {
	root string
	fs   afs.Service
}

// URL returns the location of a driver file.
func (s *Store) URL(family, fileName string) string {
	return url.Join(s.root, family, fileName)
}

func (s *Store) Exists(ctx context.Context, family, fileName string) (bool, error) {
	return s.fs.Exists(ctx, s.URL(family, fileName))
}

// Put writes data under a temporary name and moves it into place, so a
// driver file is either absent or complete. The temporary name keeps the
// extension of fileName; afs moves into dest as a directory otherwise.
func (s *Store) Put(ctx context.Context, family, fileName string, data []byte) (*Installed, error) {
	temp := s.URL(family, "."+uuid.New().String()+path.Ext(fileName))
	if err := s.fs.Upload(ctx, temp, 0644, bytes.NewReader(data)); err != nil {
		return nil, err
	}
	dest := s.URL(family, fileName)
	if err := s.fs.Move(ctx, temp, dest); err != nil {
		_ = s.fs.Delete(ctx, temp)
		return nil, err
	}
	ret := &Installed{Family: family, FileName: fileName, Size: int64(len(data)), Modified: time.Now(), URL: dest}
	ret.Version = versionOf(fileName)
	return ret, nil
}

// List returns the drivers installed for family, ordered by file name.
func (s *Store) List(ctx context.Context, family string) ([]*Installed, error) {
	dir := url.Join(s.root, family)
	if ok, err := s.fs.Exists(ctx, dir); err != nil || !ok {
		return nil, err
	}
	objects, err := s.fs.List(ctx, dir)
	if err != nil {
		return nil, err
	}
	var ret []*Installed
	for _, object := range objects {
		if object.IsDir() || strings.HasPrefix(object.Name(), ".") {
			continue
		}
		ret = append(ret, &Installed{
			Family:   family,
			FileName: object.Name(),
			Version:  versionOf(object.Name()),
			Size:     object.Size(),
			Modified: object.ModTime(),
			URL:      object.URL(),
		})
	}
	sort.Slice(ret, func(i, j int) bool { return ret[i].FileName < ret[j].FileName })
	return ret, nil
}

func (s *Store) Delete(ctx context.Context, family, fileName string) error {
	return s.fs.Delete(ctx, s.URL(family, fileName))
}

func versionOf(fileName string) string {
	if match := fileNameExpr.FindStringSubmatch(fileName); len(match) == 4 {
		return match[2]
	}
	return ""
}

// NewStore creates a store rooted at root, e.g. file:///var/lib/dbkit/drivers.
func NewStore(root string) *Store {
	return &Store{root: root, fs: afs.New()}
}
