package dao

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TestToggleStage checks the stage only references the current document.
func TestToggleStage(t *testing.T) {
	uid := primitive.NewObjectID()

	stage := toggleStage("likes", "dislikes", uid)
	require.Len(t, stage, 1)
	require.Equal(t, "$set", stage[0].Key)

	set, ok := stage[0].Value.(bson.D)
	require.True(t, ok)
	require.Len(t, set, 2)
	require.Equal(t, "likes", set[0].Key)
	require.Equal(t, "dislikes", set[1].Key)

	raw, err := bson.Marshal(bson.D{{Key: "p", Value: bson.A{stage, countStage("blogStatus.likes", "likes")}}})
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	require.Len(t, toggleStage("likes", "", uid)[0].Value.(bson.D), 1)
}
