package cmd

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	mongoLib "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

type mockDB struct {
	db *mongoLib.Database
}

func (m mockDB) Close(context.Context) error { return nil }
func (m mockDB) GetCol(name string) *mongoLib.Collection { return m.db.Collection(name) }
func (m mockDB) CurrentDB() *mongoLib.Database { return m.db }
func (m mockDB) StartSession() (mongoLib.Session, error) { return m.db.Client().StartSession() }

// TestOpenMongoStore verifies the api creates the unique indexes before serving.
func TestOpenMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("indexes created", func(mt *mtest.T) {
		mt.ClearEvents()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		store, err := openMongoStore(context.Background(), mockDB{db: mt.DB})
		require.NoError(mt, err)
		require.NotNil(mt, store)

		for _, col := range []string{"users", "blogs", "comments"} {
			evt := mt.GetStartedEvent()
			require.NotNil(mt, evt)
			require.Equal(mt, "createIndexes", evt.CommandName)
			require.Equal(mt, col, evt.Command.Lookup("createIndexes").StringValue())
		}
	})

	mt.Run("startup fails without indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 86, Name: "IndexKeySpecsConflict", Message: "existing index differs",
		}))

		_, err := openMongoStore(context.Background(), mockDB{db: mt.DB})
		require.ErrorContains(mt, err, "ensure indexes")
	})
}
