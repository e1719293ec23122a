package query

import (
	"context"
	"database/sql"
	"fmt"
	"reflect"
	"strings"

	"github.com/viant/sqlparser"
	"github.com/viant/sqlx/io"
	"github.com/viant/sqlx/io/read"
	text "github.com/viant/tagly/format/text"
)

// Service reads arbitrary result sets into dynamically built record types.
type Service struct {
	cache *recordTypeCache
}

// Query runs SQL and returns one pointer to an anonymous struct per row.
// Record types are cached per db handle and projection.
func (r *Service) Query(ctx context.Context, db *sql.DB, SQL string, args ...interface{}) ([]interface{}, error) {
	recordType, err := r.recordType(ctx, db, SQL, args)
	if err != nil {
		return nil, err
	}
	newRecord := func() interface{} {
		return reflect.New(recordType).Interface()
	}
	reader, err := read.New(ctx, db, SQL, newRecord)
	if err != nil {
		return nil, err
	}
	var rows []interface{}
	err = reader.QueryAll(ctx, func(row interface{}) error {
		rows = append(rows, row)
		return nil
	}, args...)
	return rows, err
}

func (r *Service) recordType(ctx context.Context, db *sql.DB, SQL string, args []interface{}) (reflect.Type, error) {
	cacheKey := r.cacheKey(db, SQL)
	if cached, ok := r.cache.Get(cacheKey); ok {
		return cached, nil
	}
	columns, err := io.DetectColumns(ctx, db, SQL, args...)
	if err != nil {
		return nil, err
	}
	described := make([]column, 0, len(columns))
	for _, item := range columns {
		described = append(described, column{
			name:     item.Name,
			scanType: item.ScanType(),
			nullable: item.Nullable == "1" || item.Nullable == "true",
		})
	}
	recordType := structOf(described)
	r.cache.Put(cacheKey, recordType)
	return recordType, nil
}

// Run executes SQL exactly once and reads whatever rows it returns. It serves
// statements with side effects, such as writes with a RETURNING clause or
// procedure calls, whose record type cannot be detected by a dry run.
func (r *Service) Run(ctx context.Context, db *sql.DB, SQL string, args ...interface{}) ([]interface{}, error) {
	rows, err := db.QueryContext(ctx, SQL, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	described := make([]column, 0, len(columnTypes))
	for _, item := range columnTypes {
		nullable, _ := item.Nullable()
		described = append(described, column{name: item.Name(), scanType: item.ScanType(), nullable: nullable})
	}
	recordType := structOf(described)
	var ret []interface{}
	for rows.Next() {
		record := reflect.New(recordType)
		value := record.Elem()
		dest := make([]interface{}, value.NumField())
		for i := range dest {
			dest[i] = value.Field(i).Addr().Interface()
		}
		if err = rows.Scan(dest...); err != nil {
			return nil, err
		}
		ret = append(ret, record.Interface())
	}
	return ret, rows.Err()
}

type column struct {
	name     string
	scanType reflect.Type
	nullable bool
}

var (
	anyType      = reflect.TypeOf((*interface{})(nil)).Elem()
	rawBytesType = reflect.TypeOf(sql.RawBytes{})
)

// structOf builds a record type with one sqlx and json tagged field per
// column. Duplicate field names get a numeric suffix.
func structOf(columns []column) reflect.Type {
	var fields []reflect.StructField
	seen := map[string]int{}
	for _, item := range columns {
		columnCase := text.DetectCaseFormat(item.name)
		fieldName := columnCase.To(text.CaseFormatUpperCamel).Format(item.name)
		if fieldName == "" || !isExported(fieldName) {
			fieldName = "Col" + fieldName
		}
		if count := seen[fieldName]; count > 0 {
			seen[fieldName]++
			fieldName = fmt.Sprintf("%s%d", fieldName, count)
		} else {
			seen[fieldName] = 1
		}
		scanType := item.scanType
		switch scanType {
		case nil:
			scanType = anyType
		case rawBytesType:
			scanType = reflect.TypeOf([]byte{})
		}
		if scanType.Kind() != reflect.Pointer && scanType.Kind() != reflect.Interface && item.nullable {
			scanType = reflect.PointerTo(scanType)
		}
		field := reflect.StructField{Name: fieldName, Tag: reflect.StructTag(`sqlx:"` + item.name + `" json:"` + item.name + `"`), Type: scanType}
		fields = append(fields, field)
	}
	return reflect.StructOf(fields)
}

// cacheKey makes semantically equivalent projections share a key.
func (r *Service) cacheKey(db *sql.DB, SQL string) string {
	prefix := fmt.Sprintf("%p:", db)
	cacheKey := prefix + SQL
	lcQuery := strings.ToLower(SQL)
	if strings.Contains(lcQuery, "where ") || strings.Contains(lcQuery, "limit ") || strings.Contains(lcQuery, "order ") {
		if parsed, _ := sqlparser.ParseQuery(SQL); parsed != nil && parsed.From.X != nil {
			cacheKey = prefix + sqlparser.Stringify(parsed.From.X)
			for _, column := range parsed.List {
				cacheKey += sqlparser.Stringify(column.Expr) + column.Alias + ","
			}
		}
	}
	return cacheKey
}

func isExported(name string) bool {
	return name[0] >= 'A' && name[0] <= 'Z'
}

// New creates a query service caching up to capacity record types.
func New(capacity int) *Service {
	return &Service{cache: newRecordTypeCache(capacity)}
}
