package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB initializes the SQLite database
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        request_id TEXT NOT NULL,
        age REAL,
        probability REAL NOT NULL,
        label INTEGER NOT NULL,
        risk_tier VARCHAR(10) NOT NULL,
        confidence REAL NOT NULL,
        created_at DATETIME NOT NULL,
        UNIQUE(request_id)
    );
    CREATE TABLE IF NOT EXISTS samples (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        age REAL, sex REAL, chest_pain_type REAL, resting_bp_s REAL,
        cholesterol REAL, fasting_blood_sugar REAL, resting_ecg REAL,
        max_heart_rate REAL, exercise_angina REAL, oldpeak REAL,
        st_slope REAL, target INTEGER
    );
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY,
        model_name VARCHAR(50),
        accuracy REAL,
        precision REAL,
        recall REAL,
        f1_score REAL,
        auc REAL,
        trained_at DATETIME,
        data_points INTEGER
    );`

	_, err = database.Exec(query)
	return err
}

// Close releases the database handle.
func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// PredictionRecord is one served prediction, kept for the history view.
type PredictionRecord struct {
	RequestID   string    `json:"request_id"`
	Age         float64   `json:"age"`
	Probability float64   `json:"probability"`
	Label       int       `json:"label"`
	RiskTier    string    `json:"risk_tier"`
	Confidence  float64   `json:"confidence"`
	CreatedAt   time.Time `json:"created_at"`
}

func SavePrediction(record PredictionRecord) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(
		`INSERT OR IGNORE INTO predictions
         (request_id, age, probability, label, risk_tier, confidence, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.RequestID, record.Age, record.Probability, record.Label,
		record.RiskTier, record.Confidence, record.CreatedAt,
	)
	return err
}

func RecentPredictions(limit int) ([]PredictionRecord, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(
		`SELECT request_id, age, probability, label, risk_tier, confidence, created_at
         FROM predictions ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0, limit)
	for rows.Next() {
		var record PredictionRecord
		if err := rows.Scan(&record.RequestID, &record.Age, &record.Probability,
			&record.Label, &record.RiskTier, &record.Confidence, &record.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Sample is one dataset row in encoded form, schema column order.
type Sample struct {
	Features []float64
	Target   int
}

// ImportSamples replaces the dataset table contents in one transaction.
func ImportSamples(samples []Sample) error {
	if database == nil {
		return errors.New("database not initialized")
	}

	tx, err := database.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM samples`); err != nil {
		tx.Rollback()
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO samples
         (age, sex, chest_pain_type, resting_bp_s, cholesterol, fasting_blood_sugar,
          resting_ecg, max_heart_rate, exercise_angina, oldpeak, st_slope, target)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, sample := range samples {
		if len(sample.Features) != 11 {
			tx.Rollback()
			return errors.New("sample has wrong feature count")
		}
		args := make([]interface{}, 0, 12)
		for _, value := range sample.Features {
			args = append(args, value)
		}
		args = append(args, sample.Target)
		if _, err := stmt.Exec(args...); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// AgeGroupRisk is the average positive rate of dataset samples within an
// age band, used by the comparison chart.
type AgeGroupRisk struct {
	Group   string  `json:"group"`
	AvgRisk float64 `json:"avg_risk"`
	Count   int     `json:"count"`
}

func RiskByAgeGroup() ([]AgeGroupRisk, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT
            CASE
                WHEN age <= 30 THEN '18-30'
                WHEN age <= 45 THEN '31-45'
                WHEN age <= 60 THEN '46-60'
                ELSE '60+'
            END AS age_group,
            AVG(target), COUNT(*)
        FROM samples
        GROUP BY age_group
        ORDER BY MIN(age)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := make([]AgeGroupRisk, 0, 4)
	for rows.Next() {
		var group AgeGroupRisk
		if err := rows.Scan(&group.Group, &group.AvgRisk, &group.Count); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

// TrainingRun is one trainer invocation with its holdout metrics.
type TrainingRun struct {
	ModelName  string
	Accuracy   float64
	Precision  float64
	Recall     float64
	F1Score    float64
	AUC        float64
	TrainedAt  time.Time
	DataPoints int
}

func SaveTrainingRun(run TrainingRun) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(
		`INSERT INTO training_log
         (model_name, accuracy, precision, recall, f1_score, auc, trained_at, data_points)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ModelName, run.Accuracy, run.Precision, run.Recall,
		run.F1Score, run.AUC, run.TrainedAt, run.DataPoints,
	)
	return err
}
