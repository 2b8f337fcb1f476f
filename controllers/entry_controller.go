package controllers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubdev/clubdev/config"
	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/utils"
)

// EntryController manages journal entries and their attachments.
type EntryController struct {
	db *gorm.DB
}

// NewEntryController creates a new EntryController instance.
func NewEntryController(db *gorm.DB) *EntryController {
	return &EntryController{db: db}
}

// CreateEntry allows authenticated users to write a journal entry. Creating
// an entry awards points and advances the writing streak.
func (e *EntryController) CreateEntry(ctx *gin.Context) {
	var req struct {
		Title       string   `json:"title" binding:"required,min=1"`
		Content     string   `json:"content" binding:"required"`
		Tags        []string `json:"tags"`
		Category    string   `json:"category"`
		IsVoiceNote bool     `json:"is_voice_note"`
		Attachments string   `json:"attachments"` // JSON array of URLs
	}

	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40021, "title cannot be empty")
		return
	}
	content := utils.Sanitize(req.Content)

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	entry := models.Entry{
		UserID:      userID,
		Title:       title,
		Content:     content,
		IsVoiceNote: req.IsVoiceNote,
		Attachments: req.Attachments,
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if req.Category != "" {
			cat := models.Category{Name: strings.TrimSpace(req.Category)}
			if err := tx.Where("name = ?", cat.Name).FirstOrCreate(&cat).Error; err != nil {
				return err
			}
			entry.CategoryID = &cat.ID
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		if err := attachTags(tx, &entry, req.Tags); err != nil {
			return err
		}
		if err := awardPoints(tx, userID, PointsCreateEntry); err != nil {
			return err
		}
		return recordEntryActivity(tx, userID)
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to create entry")
		return
	}

	utils.InvalidateByPrefix("cache:entries:list:")
	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(userID)) + ":entries:")

	if err := e.db.Preload("User").Preload("Tags").Preload("Category").First(&entry, entry.ID).Error; err == nil {
		utils.Success(ctx, gin.H{"entry": entry})
		return
	}
	utils.Success(ctx, gin.H{"entry": entry})
}

// attachTags resolves tag names to rows, creating missing ones, and replaces
// the entry's tag set.
func attachTags(tx *gorm.DB, entry *models.Entry, names []string) error {
	tags := make([]models.Tag, 0, len(names))
	seen := map[string]bool{}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		var tag models.Tag
		if err := tx.Where("name = ?", name).FirstOrCreate(&tag, models.Tag{Name: name}).Error; err != nil {
			return err
		}
		tags = append(tags, tag)
	}
	return tx.Model(entry).Association("Tags").Replace(tags)
}

// ListEntries returns entries filtered by a search term and ordered by the
// requested sort. Search matches titles, content and tag names.
func (e *EntryController) ListEntries(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	search := strings.TrimSpace(ctx.Query("search"))
	sort := strings.TrimSpace(ctx.Query("sort"))
	category := strings.TrimSpace(ctx.Query("category"))

	// Cache unsearched lists to avoid cache key explosion
	cacheKey := fmt.Sprintf("cache:entries:list:cat=%s:sort=%s:page=%d:size=%d", category, sort, page, pageSize)
	if search == "" {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(200, "application/json", b)
			return
		}
	}

	query := e.db.Model(&models.Entry{}).Preload("User").Preload("Tags").Preload("Category")
	if search != "" {
		like := "%" + search + "%"
		query = query.Where(
			"title LIKE ? OR content LIKE ? OR EXISTS (SELECT 1 FROM entry_tags et JOIN tags t ON t.id = et.tag_id WHERE et.entry_id = entries.id AND t.name LIKE ?)",
			like, like, like,
		)
	}
	if category != "" {
		query = query.Joins("JOIN categories ON categories.id = entries.category_id").
			Where("categories.name = ?", category)
	}

	switch sort {
	case "oldest":
		query = query.Order("entries.created_at ASC")
	case "title":
		query = query.Order("entries.title ASC")
	default:
		query = query.Order("entries.created_at DESC")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to count entries")
		return
	}

	var entries []models.Entry
	if err := query.Offset((page - 1) * pageSize).Limit(pageSize).Find(&entries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to list entries")
		return
	}

	viewerID, _ := getUserID(ctx)
	if err := e.decorateCounts(entries, viewerID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load entry counts")
		return
	}

	payload := gin.H{
		"items": entries,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	}
	if search == "" && viewerID == 0 {
		wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: payload}
		utils.CacheSetJSON(cacheKey, wrapper, time.Hour)
	}
	utils.Success(ctx, payload)
}

// SearchEntries matches a query against titles, content and tag names. The
// caller's own entries rank ahead of everyone else's.
func (e *EntryController) SearchEntries(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	q := strings.TrimSpace(ctx.Query("q"))
	if q == "" {
		utils.Error(ctx, http.StatusBadRequest, 40029, "query parameter is required")
		return
	}

	like := "%" + q + "%"
	var entries []models.Entry
	if err := e.db.Preload("User").Preload("Tags").
		Where(
			"title LIKE ? OR content LIKE ? OR EXISTS (SELECT 1 FROM entry_tags et JOIN tags t ON t.id = et.tag_id WHERE et.entry_id = entries.id AND t.name LIKE ?)",
			like, like, like,
		).
		Order(fmt.Sprintf("CASE WHEN user_id = %d THEN 0 ELSE 1 END", userID)).
		Order("created_at DESC").
		Limit(20).
		Find(&entries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50067, "failed to search entries")
		return
	}

	if err := e.decorateCounts(entries, userID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50068, "failed to load entry counts")
		return
	}
	utils.Success(ctx, gin.H{"items": entries})
}

// decorateCounts fills the derived like/comment counters on each entry with
// aggregate queries. Hidden comments are not counted.
func (e *EntryController) decorateCounts(entries []models.Entry, viewerID uint) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(entries))
	for _, en := range entries {
		ids = append(ids, en.ID)
	}

	type countRow struct {
		EntryID uint
		N       int64
	}

	var likeRows []countRow
	if err := e.db.Model(&models.Like{}).
		Select("entry_id, COUNT(*) AS n").
		Where("entry_id IN ?", ids).
		Group("entry_id").
		Scan(&likeRows).Error; err != nil {
		return err
	}
	likes := map[uint]int64{}
	for _, r := range likeRows {
		likes[r.EntryID] = r.N
	}

	var commentRows []countRow
	if err := e.db.Model(&models.Comment{}).
		Select("entry_id, COUNT(*) AS n").
		Where("entry_id IN ? AND is_hidden = ?", ids, false).
		Group("entry_id").
		Scan(&commentRows).Error; err != nil {
		return err
	}
	comments := map[uint]int64{}
	for _, r := range commentRows {
		comments[r.EntryID] = r.N
	}

	liked := map[uint]bool{}
	if viewerID != 0 {
		var likedRows []models.Like
		if err := e.db.Where("user_id = ? AND entry_id IN ?", viewerID, ids).Find(&likedRows).Error; err != nil {
			return err
		}
		for _, l := range likedRows {
			liked[l.EntryID] = true
		}
	}

	for i := range entries {
		entries[i].LikeCount = likes[entries[i].ID]
		entries[i].CommentCount = comments[entries[i].ID]
		entries[i].LikedByMe = liked[entries[i].ID]
	}
	return nil
}

// GetEntry returns a single entry with its author, tags, visible comments
// and derived counters.
func (e *EntryController) GetEntry(ctx *gin.Context) {
	entryID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid entry id")
		return
	}

	var entry models.Entry
	if err := e.db.Preload("User").Preload("Tags").Preload("Category").First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "entry not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to load entry")
		return
	}

	viewerID, _ := getUserID(ctx)
	list := []models.Entry{entry}
	if err := e.decorateCounts(list, viewerID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load entry counts")
		return
	}
	entry = list[0]

	// Hidden comments stay visible to their author and to admins.
	commentQuery := e.db.Preload("User").Where("entry_id = ?", entry.ID)
	if !isAdmin(ctx) {
		if viewerID != 0 {
			commentQuery = commentQuery.Where("is_hidden = ? OR user_id = ?", false, viewerID)
		} else {
			commentQuery = commentQuery.Where("is_hidden = ?", false)
		}
	}
	var comments []models.Comment
	if err := commentQuery.Order("created_at ASC").Find(&comments).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to load comments")
		return
	}

	utils.Success(ctx, gin.H{"entry": entry, "comments": comments})
}

// UpdateEntry allows the author to edit their entry.
func (e *EntryController) UpdateEntry(ctx *gin.Context) {
	var req struct {
		Title       string   `json:"title" binding:"required,min=1"`
		Content     string   `json:"content" binding:"required"`
		Tags        []string `json:"tags"`
		Category    string   `json:"category"`
		Attachments string   `json:"attachments"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40025, "invalid request payload")
		return
	}

	title := utils.Sanitize(strings.TrimSpace(req.Title))
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40026, "title cannot be empty")
		return
	}

	entryID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid entry id")
		return
	}

	var entry models.Entry
	if err := e.db.First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "entry not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to load entry")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40111, "unauthorized")
		return
	}
	if entry.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40301, "you can only update your own entries")
		return
	}

	entry.Title = title
	entry.Content = utils.Sanitize(req.Content)
	entry.Attachments = req.Attachments

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if req.Category != "" {
			cat := models.Category{Name: strings.TrimSpace(req.Category)}
			if err := tx.Where("name = ?", cat.Name).FirstOrCreate(&cat).Error; err != nil {
				return err
			}
			entry.CategoryID = &cat.ID
		}
		if err := tx.Save(&entry).Error; err != nil {
			return err
		}
		if req.Tags != nil {
			return attachTags(tx, &entry, req.Tags)
		}
		return nil
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to update entry")
		return
	}

	utils.InvalidateByPrefix("cache:entries:list:")
	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(entry.UserID)) + ":entries:")

	utils.Success(ctx, gin.H{"entry": entry})
}

// DeleteEntry allows the author or an admin to delete an entry.
func (e *EntryController) DeleteEntry(ctx *gin.Context) {
	entryID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid entry id")
		return
	}

	var entry models.Entry
	if err := e.db.First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40403, "entry not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to load entry")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40112, "unauthorized")
		return
	}
	if entry.UserID != userID && !isAdmin(ctx) {
		utils.Error(ctx, http.StatusForbidden, 40302, "you can only delete your own entries")
		return
	}

	err := e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.Like{}).Error; err != nil {
			return err
		}
		if err := tx.Where("entry_id = ?", entry.ID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entry).Error
	})
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to delete entry")
		return
	}

	utils.InvalidateByPrefix("cache:entries:list:")
	utils.InvalidateByPrefix("cache:user:" + strconv.Itoa(int(entry.UserID)) + ":entries:")

	utils.Success(ctx, gin.H{"message": "entry deleted"})
}

// TogglePin flips the pinned state of the author's entry.
func (e *EntryController) TogglePin(ctx *gin.Context) {
	entryID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid entry id")
		return
	}

	var entry models.Entry
	if err := e.db.First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40404, "entry not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to load entry")
		return
	}

	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40113, "unauthorized")
		return
	}
	if entry.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40303, "you can only pin your own entries")
		return
	}

	entry.IsPinned = !entry.IsPinned
	if err := e.db.Save(&entry).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to update entry")
		return
	}

	utils.Success(ctx, gin.H{"entry": entry})
}

// ListUserEntries returns entries written by a specific user (public).
func (e *EntryController) ListUserEntries(ctx *gin.Context) {
	targetID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40060, "invalid user id")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var entries []models.Entry
	var total int64
	q := e.db.Where("user_id = ?", targetID).Preload("User").Preload("Tags").
		Order("is_pinned DESC, created_at DESC")
	if err := q.Model(&models.Entry{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50060, "failed to count user entries")
		return
	}
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&entries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50061, "failed to list user entries")
		return
	}

	viewerID, _ := getUserID(ctx)
	if err := e.decorateCounts(entries, viewerID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50062, "failed to load entry counts")
		return
	}

	utils.Success(ctx, gin.H{
		"items": entries,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// ListRecentEntries returns the caller's five newest entries as a compact
// id/title/created_at listing for dashboard widgets.
func (e *EntryController) ListRecentEntries(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	type recentEntry struct {
		ID        uint      `json:"id"`
		Title     string    `json:"title"`
		CreatedAt time.Time `json:"created_at"`
	}
	var recent []recentEntry
	if err := e.db.Model(&models.Entry{}).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(5).
		Find(&recent).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50066, "failed to list recent entries")
		return
	}
	utils.Success(ctx, gin.H{"items": recent})
}

// ListMyEntries returns the authenticated user's entries.
func (e *EntryController) ListMyEntries(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))

	var entries []models.Entry
	var total int64
	q := e.db.Where("user_id = ?", userID).Preload("User").Preload("Tags").
		Order("is_pinned DESC, created_at DESC")
	if err := q.Model(&models.Entry{}).Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50063, "failed to count entries")
		return
	}
	if err := q.Offset((page - 1) * pageSize).Limit(pageSize).Find(&entries).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50064, "failed to list entries")
		return
	}
	if err := e.decorateCounts(entries, userID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50065, "failed to load entry counts")
		return
	}

	utils.Success(ctx, gin.H{
		"items": entries,
		"pagination": gin.H{
			"page":        page,
			"page_size":   pageSize,
			"total":       total,
			"total_pages": int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// UploadAttachment handles file uploads for entries (images, voice notes).
func (e *EntryController) UploadAttachment(ctx *gin.Context) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40114, "unauthorized")
		return
	}

	file, header, err := ctx.Request.FormFile("file")
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "no file uploaded")
		return
	}
	defer file.Close()

	// Size limit: 50MB
	const maxSize = 50 * 1024 * 1024
	if header.Size > 0 && header.Size > maxSize {
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds 50MB")
		return
	}

	now := time.Now()
	baseDir := filepath.Join(".", "static", "uploads", now.Format("2006"), now.Format("01"), now.Format("02"))
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to create upload directory")
		return
	}

	fname := filepath.Base(header.Filename)
	if fname == "." || fname == "" {
		fname = fmt.Sprintf("file_%d", now.UnixNano())
	}
	// prevent collisions: prefix with timestamp and user id
	safeName := fmt.Sprintf("%d_%d_%s", now.UnixNano(), userID, fname)
	dstPath := filepath.Join(baseDir, safeName)

	out, err := os.Create(dstPath)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to save file")
		return
	}
	defer out.Close()

	lr := &io.LimitedReader{R: file, N: maxSize + 1}
	written, err := io.Copy(out, lr)
	if err != nil {
		_ = os.Remove(dstPath)
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to write file")
		return
	}
	if written > maxSize {
		_ = os.Remove(dstPath)
		utils.Error(ctx, http.StatusBadRequest, 40032, "file size exceeds 50MB")
		return
	}

	relURL := fmt.Sprintf("/static/uploads/%s/%s/%s/%s",
		now.Format("2006"), now.Format("01"), now.Format("02"), safeName)

	ttl := config.Get().UploadsTTLMinutes
	expireAt := now.Add(time.Duration(ttl) * time.Minute)
	absPath, _ := filepath.Abs(dstPath)
	record := models.UploadedFile{UserID: userID, FilePath: absPath, URL: relURL, ExpireAt: expireAt}
	if err := e.db.Create(&record).Error; err != nil {
		utils.Sugar.Warnf("failed to record upload %s: %v", relURL, err)
	}

	utils.Success(ctx, gin.H{"url": relURL})
}
