package launchdb

import (
	"context"
	"log"

	"github.com/uptrace/bun"

	mghelper "github.com/tokenforge/launchpad-middleware/pkg/pgutil/migrations"
	"github.com/tokenforge/launchpad-middleware/pkg/recordstore"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		log.Println("creating token_records table...")
		if err := mghelper.CreateSchema(ctx, db, &recordstore.TokenRecordDao{}); err != nil {
			return err
		}
		// creator_id serves the listing endpoint, tx_hash the reconciler scan
		return mghelper.CreateModelIndexes(ctx, db, &recordstore.TokenRecordDao{}, "creator_id", "tx_hash")
	}, func(ctx context.Context, db *bun.DB) error {
		log.Println("dropping token_records table...")
		return mghelper.DropTables(ctx, db, &recordstore.TokenRecordDao{})
	})
}
