package dao

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// arrayOf field expression that treats a missing array as empty
func arrayOf(field string) bson.D {
	return bson.D{{Key: "$ifNull", Value: bson.A{"$" + field, bson.A{}}}}
}

func without(arr any, ids ...primitive.ObjectID) bson.D {
	return bson.D{{Key: "$filter", Value: bson.D{
		{Key: "input", Value: arr},
		{Key: "cond", Value: bson.D{{Key: "$not", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{"$$this", ids}}},
		}}}},
	}}}
}

func with(arr any, id primitive.ObjectID) bson.D {
	return bson.D{{Key: "$concatArrays", Value: bson.A{arr, bson.A{id}}}}
}

func contains(arr any, id primitive.ObjectID) bson.D {
	return bson.D{{Key: "$in", Value: bson.A{id, arr}}}
}

func cond(ifExpr, thenExpr, elseExpr any) bson.D {
	return bson.D{{Key: "$cond", Value: bson.A{ifExpr, thenExpr, elseExpr}}}
}

// toggleStage add id to field if absent, otherwise remove it.
// When clear is set, adding id to field also removes it from clear.
func toggleStage(field, clear string, id primitive.ObjectID) bson.D {
	arr := arrayOf(field)
	present := contains(arr, id)
	set := bson.D{{Key: field, Value: cond(present, without(arr, id), with(arr, id))}}
	if clear != "" {
		other := arrayOf(clear)
		set = append(set, bson.E{Key: clear, Value: cond(present, other, without(other, id))})
	}

	return bson.D{{Key: "$set", Value: set}}
}

// addStage add id to field if absent
func addStage(field string, id primitive.ObjectID) bson.D {
	arr := arrayOf(field)
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: field, Value: cond(contains(arr, id), arr, with(arr, id))},
	}}}
}

// removeStage remove ids from field
func removeStage(field string, ids ...primitive.ObjectID) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: field, Value: without(arrayOf(field), ids...)},
	}}}
}

// countStage set counter to the size of field
func countStage(counter, field string) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{
		{Key: counter, Value: bson.D{{Key: "$size", Value: arrayOf(field)}}},
	}}}
}

func touchStage() bson.D {
	return bson.D{{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: "$$NOW"}}}}
}
