package dsn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authenticator/authenticator/internal/config"
)

func TestCreate(t *testing.T) {
	testCases := []struct {
		name    string
		db      config.DB
		want    string
		wantErr error
	}{
		{
			name: "mysql with extras",
			db: config.DB{
				GormEngine: "mysql", User: "auth", Password: "pw", Host: "db", Port: 3306,
				Name: "auth_db", Extras: "parseTime=true",
			},
			want: "auth:pw@tcp(db:3306)/auth_db?parseTime=true",
		},
		{
			name: "mysql without extras",
			db:   config.DB{GormEngine: "MySQL", User: "auth", Password: "pw", Host: "db", Port: 3306, Name: "auth_db"},
			want: "auth:pw@tcp(db:3306)/auth_db",
		},
		{
			name: "postgres default sslmode",
			db:   config.DB{GormEngine: "postgres", User: "auth", Password: "pw", Host: "pg", Port: 5432, Name: "auth_db"},
			want: "host=pg port=5432 user=auth password=pw dbname=auth_db sslmode=disable",
		},
		{
			name: "postgres with sslmode and extras",
			db: config.DB{
				GormEngine: "postgres", User: "auth", Password: "pw", Host: "pg", Port: 5432, Name: "auth_db",
				SSLMode: "require", Extras: "TimeZone=UTC",
			},
			want: "host=pg port=5432 user=auth password=pw dbname=auth_db sslmode=require TimeZone=UTC",
		},
		{
			name: "sqlite file",
			db:   config.DB{GormEngine: "sqlite", Name: "authenticator.db"},
			want: "authenticator.db",
		},
		{
			name: "sqlite memory fallback",
			db:   config.DB{GormEngine: "sqlite"},
			want: ":memory:",
		},
		{
			name:    "unknown engine",
			db:      config.DB{GormEngine: "oracle"},
			wantErr: ErrUnknownEngine,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Create(&config.Config{DB: tc.db})
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
