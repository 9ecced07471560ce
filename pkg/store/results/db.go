package results

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/databricks/databricks-sql-go"
	sf "github.com/snowflakedb/gosnowflake"
)

const (
	DriverDatabricks = "databricks"
	DriverSnowflake  = "snowflake"
)

type Settings struct {
	Driver string
	DSN    string
}

// NewDB opens a connection pool for one of the supported warehouse drivers.
func NewDB(settings Settings) (*sql.DB, error) {
	switch settings.Driver {
	case DriverDatabricks, DriverSnowflake:
	default:
		return nil, fmt.Errorf("unsupported sink driver %q", settings.Driver)
	}
	if settings.DSN == "" {
		return nil, fmt.Errorf("sink dsn is required")
	}

	db, err := sql.Open(settings.Driver, settings.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", settings.Driver, err)
	}
	return db, nil
}

// BuildDSN renders a connection string for driver from a credentials profile.
//
// databricks expects host, token and http_path, with optional catalog and schema.
// snowflake expects account, user and password, with optional database, schema, warehouse and role.
func BuildDSN(driver string, creds map[string]string) (string, error) {
	switch driver {
	case DriverDatabricks:
		return databricksDSN(creds)
	case DriverSnowflake:
		return snowflakeDSN(creds)
	default:
		return "", fmt.Errorf("unsupported sink driver %q", driver)
	}
}

func databricksDSN(creds map[string]string) (string, error) {
	for _, key := range []string{"host", "token", "http_path"} {
		if creds[key] == "" {
			return "", fmt.Errorf("databricks credentials: %s is required", key)
		}
	}

	dsn := fmt.Sprintf("%s@%s%s", url.UserPassword("token", creds["token"]), creds["host"], creds["http_path"])

	params := url.Values{}
	if creds["catalog"] != "" {
		params.Set("catalog", creds["catalog"])
	}
	if creds["schema"] != "" {
		params.Set("schema", creds["schema"])
	}
	if qp := params.Encode(); qp != "" {
		dsn = dsn + "?" + qp
	}
	return dsn, nil
}

func snowflakeDSN(creds map[string]string) (string, error) {
	cfg := &sf.Config{
		Account:   creds["account"],
		User:      creds["user"],
		Password:  creds["password"],
		Database:  creds["database"],
		Schema:    creds["schema"],
		Warehouse: creds["warehouse"],
		Role:      creds["role"],
	}
	dsn, err := sf.DSN(cfg)
	if err != nil {
		return "", fmt.Errorf("snowflake credentials: %w", err)
	}
	return dsn, nil
}

type txKey struct{}

func WithTransaction(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

func GetTransaction(ctx context.Context) *sql.Tx {
	tx, _ := ctx.Value(txKey{}).(*sql.Tx)
	return tx
}
