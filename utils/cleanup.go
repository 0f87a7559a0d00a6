package utils

import (
	"os"
	"time"

	"blogium/config"
	"blogium/models"
)

// StartUploadCleaner launches a background goroutine that periodically
// deletes expired uploaded images recorded in the database. It is
// best-effort and logs failures.
func StartUploadCleaner(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup
			time.Sleep(interval)
			if !config.Get().UploadsSelfDestructEnabled {
				continue
			}
			db := config.DB()
			if db == nil {
				continue
			}
			var items []models.UploadedFile
			if err := db.Where("expire_at <= ?", time.Now()).Limit(100).Find(&items).Error; err != nil {
				Sugar.Warnf("upload cleaner query failed: %v", err)
				continue
			}
			for _, it := range items {
				// Skip files still referenced by a post.
				var refs int64
				if err := db.Model(&models.Post{}).Where("image = ?", it.URL).Count(&refs).Error; err == nil && refs > 0 {
					_ = db.Delete(&models.UploadedFile{}, it.ID).Error
					continue
				}
				if it.FilePath != "" {
					_ = os.Remove(it.FilePath)
				}
				// Remove row regardless of file deletion outcome
				if err := db.Delete(&models.UploadedFile{}, it.ID).Error; err != nil {
					Sugar.Warnf("upload cleaner delete row failed: %v", err)
				}
			}
		}
	}()
}
