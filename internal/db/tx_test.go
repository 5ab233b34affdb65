package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/effectiveacceleration/marketplace/internal/db"
	"github.com/effectiveacceleration/marketplace/internal/db/dbtest"
	"github.com/effectiveacceleration/marketplace/internal/db/models"
)

func TestRunInTx(t *testing.T) {
	gdb := dbtest.New(t)
	ctx := context.Background()

	t.Run("commit", func(t *testing.T) {
		err := db.RunInTx(ctx, gdb, func(ctx context.Context) error {
			_, ok := db.TxFromContext(ctx)
			assert.True(t, ok)
			return db.Conn(ctx, gdb).Create(&models.User{Address: "0x01"}).Error
		})
		require.NoError(t, err)

		var count int64
		require.NoError(t, gdb.Model(&models.User{}).Where("address = ?", "0x01").Count(&count).Error)
		assert.Equal(t, int64(1), count)
	})

	t.Run("rollback", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.RunInTx(ctx, gdb, func(ctx context.Context) error {
			if err := db.Conn(ctx, gdb).Create(&models.User{Address: "0x02"}).Error; err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		var count int64
		require.NoError(t, gdb.Model(&models.User{}).Where("address = ?", "0x02").Count(&count).Error)
		assert.Zero(t, count)
	})

	t.Run("nested joins outer", func(t *testing.T) {
		err := db.RunInTx(ctx, gdb, func(outer context.Context) error {
			outerTx, _ := db.TxFromContext(outer)
			return db.RunInTx(outer, gdb, func(inner context.Context) error {
				innerTx, _ := db.TxFromContext(inner)
				assert.Same(t, outerTx, innerTx)
				return nil
			})
		})
		require.NoError(t, err)
	})
}

func TestIsDuplicateKeyError(t *testing.T) {
	gdb := dbtest.New(t)

	require.NoError(t, gdb.Create(&models.User{Address: "0x03"}).Error)
	err := gdb.Create(&models.User{Address: "0x03"}).Error
	assert.True(t, db.IsDuplicateKeyError(err))
	assert.False(t, db.IsDuplicateKeyError(nil))
	assert.False(t, db.IsDuplicateKeyError(errors.New("other")))
}

func TestOptionsDSN(t *testing.T) {
	opts := db.Options{Host: "db", Port: 6543}
	assert.Equal(t, "host=db user=postgres password=postgres dbname=postgres port=6543 sslmode=disable", opts.DSN())
	assert.Equal(t, "postgres://postgres:postgres@db:6543/postgres?sslmode=disable", opts.URL())
}
