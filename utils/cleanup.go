package utils

import (
	"os"
	"time"

	"github.com/clubdev/clubdev/config"
	"github.com/clubdev/clubdev/models"
)

// StartUploadCleaner runs a background sweep that removes uploaded files
// past their expiry, together with their database rows. Best effort.
func StartUploadCleaner(interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			sweepExpiredUploads()
		}
	}()
}

func sweepExpiredUploads() {
	db := config.DB()
	if db == nil {
		return
	}
	var expired []models.UploadedFile
	if err := db.Where("expire_at <= ?", time.Now()).Limit(100).Find(&expired).Error; err != nil {
		Sugar.Warnf("upload cleaner query: %v", err)
		return
	}
	for _, f := range expired {
		if f.FilePath != "" {
			_ = os.Remove(f.FilePath)
		}
		// Drop the row even when the file was already gone.
		if err := db.Delete(&models.UploadedFile{}, f.ID).Error; err != nil {
			Sugar.Warnf("upload cleaner delete: %v", err)
		}
	}
}
