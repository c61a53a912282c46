package postgres

import (
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/alimikegami/campus-platform/auth-service/config"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

func GetDBInstance(conf config.PostgreSQLConfig) (*sqlx.DB, error) {
	sqlDB, err := otelsql.Open("postgres",
		fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			conf.DBHost, conf.DBPort, conf.DBUsername, conf.DBPassword, conf.DBName),
		otelsql.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBNameKey.String(conf.DBName),
		),
		otelsql.WithSpanOptions(otelsql.SpanOptions{
			DisableQuery: true,
		}),
	)
	if err != nil {
		return nil, err
	}

	db := sqlx.NewDb(sqlDB, "postgres")
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}
