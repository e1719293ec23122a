package driver

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/viant/afs"
	_ "github.com/viant/afs/http"
	"github.com/viant/afs/url"
	"github.com/viant/dbkit/plugin"
)

// Repository lists and fetches driver artifacts.
type Repository interface {
	// Versions returns the published versions of the coordinate artifact.
	Versions(ctx context.Context, coordinate *plugin.Coordinate) ([]string, error)
	// Fetch returns the content of the versioned artifact.
	Fetch(ctx context.Context, coordinate *plugin.Coordinate) ([]byte, error)
}

// MavenRepository reads a repository laid out like Maven:
// <base>/<group path>/<artifact>/maven-metadata.xml and
// <base>/<group path>/<artifact>/<version>/<artifact>-<version>.<ext>.
type MavenRepository struct {
	BaseURL string
	fs      afs.Service
}

type mavenMetadata struct {
	XMLName    xml.Name `xml:"metadata"`
	GroupID    string   `xml:"groupId"`
	ArtifactID string   `xml:"artifactId"`
	Versioning struct {
		Latest   string   `xml:"latest"`
		Release  string   `xml:"release"`
		Versions []string `xml:"versions>version"`
	} `xml:"versioning"`
}

func (r *MavenRepository) Versions(ctx context.Context, coordinate *plugin.Coordinate) ([]string, error) {
	URL := url.Join(r.BaseURL, coordinate.Dir(), "maven-metadata.xml")
	data, err := r.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, err
	}
	metadata := &mavenMetadata{}
	if err = xml.Unmarshal(data, metadata); err != nil {
		return nil, fmt.Errorf("invalid maven metadata %s: %w", URL, err)
	}
	return metadata.Versioning.Versions, nil
}

func (r *MavenRepository) Fetch(ctx context.Context, coordinate *plugin.Coordinate) ([]byte, error) {
	return r.fs.DownloadWithURL(ctx, url.Join(r.BaseURL, coordinate.Path()))
}

// NewMavenRepository creates a repository rooted at baseURL; any afs
// supported scheme works (https, file, mem).
func NewMavenRepository(baseURL string) *MavenRepository {
	return &MavenRepository{BaseURL: baseURL, fs: afs.New()}
}
