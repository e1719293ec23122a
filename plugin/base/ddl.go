package base

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/viant/dbkit/plugin"
)

// FetchDDL rebuilds a CREATE TABLE statement from the driver reported column
// types. Other object types need a vendor plugin.
func (p *Plugin) FetchDDL(ctx context.Context, db *sql.DB, object plugin.Object) (string, error) {
	switch object.Type {
	case "", plugin.ObjectTable:
	default:
		return "", fmt.Errorf("%w: %s DDL of %s", plugin.ErrCapabilityUnsupported, p.info.ID, object.Type)
	}
	name := p.Qualify(object.Scope, object.Name)
	rows, err := db.QueryContext(ctx, "SELECT * FROM "+name+" WHERE 1 = 0")
	if err != nil {
		return "", err
	}
	defer rows.Close()
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return "", err
	}
	var columns []string
	for _, columnType := range columnTypes {
		column := "  " + p.quote(columnType.Name()) + " " + columnDataType(columnType)
		if nullable, ok := columnType.Nullable(); ok && !nullable {
			column += " NOT NULL"
		}
		columns = append(columns, column)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", name, strings.Join(columns, ",\n")), rows.Err()
}

func columnDataType(columnType *sql.ColumnType) string {
	dataType := columnType.DatabaseTypeName()
	if dataType == "" {
		dataType = "TEXT"
	}
	if length, ok := columnType.Length(); ok && length > 0 && length < 1<<16 {
		return fmt.Sprintf("%s(%d)", dataType, length)
	}
	if precision, scale, ok := columnType.DecimalSize(); ok && precision > 0 {
		return fmt.Sprintf("%s(%d,%d)", dataType, precision, scale)
	}
	return dataType
}
