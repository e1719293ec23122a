package driver

import (
	"context"
	"fmt"
	goplugin "plugin"
	"strings"

	"github.com/viant/afs/url"
)

// Loader makes a downloaded driver available to database/sql.
type Loader interface {
	Load(ctx context.Context, location string) error
}

// SharedObjectLoader opens Go plugin shared objects; their init functions
// register database/sql drivers. Only local files can be opened.
type SharedObjectLoader struct{}

func (SharedObjectLoader) Load(ctx context.Context, location string) error {
	if strings.Contains(location, "://") && !strings.HasPrefix(location, "file://") {
		return fmt.Errorf("cannot load driver from %s: not a local file", location)
	}
	_, err := goplugin.Open(url.Path(location))
	return err
}
