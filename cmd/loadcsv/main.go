// loadcsv is the offline bulk importer. It reads the fixture CSVs
// (category.csv, genre.csv, titles.csv, genre_title.csv, users.csv,
// review.csv, comments.csv) from a directory and loads them into the
// database inside one transaction.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"titlehub/database"
	"titlehub/internal/api/models"
	"titlehub/internal/config"
)

func main() {
	dir := flag.String("dir", "data", "directory containing the fixture CSV files")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		n, err := importCategories(tx, filepath.Join(*dir, "category.csv"))
		if err != nil {
			return fmt.Errorf("category.csv: %w", err)
		}
		log.Printf("imported %d categories", n)

		n, err = importGenres(tx, filepath.Join(*dir, "genre.csv"))
		if err != nil {
			return fmt.Errorf("genre.csv: %w", err)
		}
		log.Printf("imported %d genres", n)

		n, err = importTitles(tx, filepath.Join(*dir, "titles.csv"))
		if err != nil {
			return fmt.Errorf("titles.csv: %w", err)
		}
		log.Printf("imported %d titles", n)

		n, err = importGenreTitles(tx, filepath.Join(*dir, "genre_title.csv"))
		if err != nil {
			return fmt.Errorf("genre_title.csv: %w", err)
		}
		log.Printf("imported %d genre links", n)

		n, err = importUsers(tx, filepath.Join(*dir, "users.csv"))
		if err != nil {
			return fmt.Errorf("users.csv: %w", err)
		}
		log.Printf("imported %d users", n)

		n, err = importReviews(tx, filepath.Join(*dir, "review.csv"))
		if err != nil {
			return fmt.Errorf("review.csv: %w", err)
		}
		log.Printf("imported %d reviews", n)

		n, err = importComments(tx, filepath.Join(*dir, "comments.csv"))
		if err != nil {
			return fmt.Errorf("comments.csv: %w", err)
		}
		log.Printf("imported %d comments", n)

		return nil
	})
	if err != nil {
		log.Fatalf("import failed, nothing was written: %v", err)
	}
	log.Println("import completed successfully")
}

// eachRecord streams the rows of one CSV as header-keyed maps. Files are
// optional; a missing file imports zero rows.
func eachRecord(path string, fn func(rec map[string]string) error) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Printf("skipping missing file %s", path)
			return 0, nil
		}
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return 0, fmt.Errorf("read header: %w", err)
	}

	count := 0
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, err
		}
		rec := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(row) {
				rec[col] = row[i]
			}
		}
		if err := fn(rec); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}

func importCategories(tx *gorm.DB, path string) (int, error) {
	return eachRecord(path, func(rec map[string]string) error {
		id, _ := strconv.ParseInt(rec["id"], 10, 64)
		return tx.Create(&models.Category{ID: id, Name: rec["name"], Slug: rec["slug"]}).Error
	})
}

func importGenres(tx *gorm.DB, path string) (int, error) {
	return eachRecord(path, func(rec map[string]string) error {
		id, _ := strconv.ParseInt(rec["id"], 10, 64)
		return tx.Create(&models.Genre{ID: id, Name: rec["name"], Slug: rec["slug"]}).Error
	})
}

func importTitles(tx *gorm.DB, path string) (int, error) {
	return eachRecord(path, func(rec map[string]string) error {
		id, _ := strconv.ParseInt(rec["id"], 10, 64)
		year, _ := strconv.Atoi(rec["year"])
		title := models.Title{ID: id, Name: rec["name"], Year: year, Description: rec["description"]}
		if v := rec["category"]; v != "" {
			categoryID, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("title %d: bad category id %q", id, v)
			}
			title.CategoryID = &categoryID
		}
		return tx.Omit("Genres", "Category").Create(&title).Error
	})
}

func importGenreTitles(tx *gorm.DB, path string) (int, error) {
	return eachRecord(path, func(rec map[string]string) error {
		titleID, _ := strconv.ParseInt(rec["title_id"], 10, 64)
		genreID, _ := strconv.ParseInt(rec["genre_id"], 10, 64)
		return tx.Create(&models.GenreTitle{TitleID: titleID, GenreID: genreID}).Error
	})
}

func importUsers(tx *gorm.DB, path string) (int, error) {
	return eachRecord(path, func(rec map[string]string) error {
		role := rec["role"]
		if role == "" {
			role = models.RoleUser
		}
		user := models.User{
			ID:        rec["id"],
			Username:  rec["username"],
			Email:     rec["email"],
			Role:      role,
			Bio:       rec["bio"],
			FirstName: rec["first_name"],
			LastName:  rec["last_name"],
			// unusable until the user signs up and receives a real code
			ConfirmationCode: "!imported",
		}
		return tx.Create(&user).Error
	})
}

func importReviews(tx *gorm.DB, path string) (int, error) {
	return eachRecord(path, func(rec map[string]string) error {
		id, _ := strconv.ParseInt(rec["id"], 10, 64)
		titleID, _ := strconv.ParseInt(rec["title_id"], 10, 64)
		score, _ := strconv.Atoi(rec["score"])
		review := models.Review{
			ID:       id,
			TitleID:  titleID,
			AuthorID: rec["author"],
			Text:     rec["text"],
			Score:    score,
		}
		return tx.Omit("Author", "Title").Create(&review).Error
	})
}

func importComments(tx *gorm.DB, path string) (int, error) {
	return eachRecord(path, func(rec map[string]string) error {
		id, _ := strconv.ParseInt(rec["id"], 10, 64)
		reviewID, _ := strconv.ParseInt(rec["review_id"], 10, 64)
		comment := models.Comment{
			ID:       id,
			ReviewID: reviewID,
			AuthorID: rec["author"],
			Text:     rec["text"],
		}
		return tx.Omit("Author", "Review").Create(&comment).Error
	})
}
