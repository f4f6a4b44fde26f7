package models

import "time"

// ExportRecord describes one artifact delivered by the scheduled export job.
type ExportRecord struct {
	ID           string    `bson:"_id" json:"id"`
	Kind         string    `bson:"kind" json:"kind"`
	Filename     string    `bson:"filename" json:"filename"`
	Range        string    `bson:"range" json:"range"`
	Rows         int       `bson:"rows" json:"rows"`
	Bytes        int       `bson:"bytes" json:"bytes"`
	TotalRevenue string    `bson:"total_revenue" json:"total_revenue"`
	GeneratedAt  time.Time `bson:"generated_at" json:"generated_at"`
}
