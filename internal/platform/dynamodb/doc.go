// Package dynamodb provides the DynamoDB implementation of store.LearningItemStore.
//
// Items live in a single table keyed by "id". Two global secondary indexes,
// both partitioned by "user_id", serve the read paths: the due index is sorted
// by "due_key" (due time, creation time and ID joined into one lexically
// ordered string) and the created index by "created_key". Per-user text
// uniqueness is enforced with a marker item written in the same transaction
// as the learning item; marker items carry no user_id and therefore never
// appear in either index.
package dynamodb
