package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/clubdev/clubdev/config"
	"github.com/clubdev/clubdev/models"
	"github.com/clubdev/clubdev/utils"
)

// IntegrationController bridges ClubDev to external developer services:
// GitHub repositories and commits for linking work to entries, and Notion
// for exporting entries as pages.
type IntegrationController struct {
	db *gorm.DB
}

// NewIntegrationController creates a new controller instance.
func NewIntegrationController(db *gorm.DB) *IntegrationController {
	return &IntegrationController{db: db}
}

func (i *IntegrationController) githubToken(ctx *gin.Context) (string, bool) {
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return "", false
	}
	var user models.User
	if err := i.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50200, "failed to load user")
		return "", false
	}
	if user.GitHubToken == "" {
		utils.Error(ctx, http.StatusBadRequest, 40140, "github account not connected")
		return "", false
	}
	return user.GitHubToken, true
}

func githubGet(token, path string, out interface{}) error {
	req, err := http.NewRequest("GET", "https://api.github.com"+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/vnd.github+json")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("github request failed: %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ListRepositories returns the caller's GitHub repositories, most recently
// pushed first.
func (i *IntegrationController) ListRepositories(ctx *gin.Context) {
	token, ok := i.githubToken(ctx)
	if !ok {
		return
	}

	var repos []struct {
		Name     string `json:"name"`
		FullName string `json:"full_name"`
		Private  bool   `json:"private"`
		HTMLURL  string `json:"html_url"`
		Language string `json:"language"`
		PushedAt string `json:"pushed_at"`
	}
	if err := githubGet(token, "/user/repos?sort=pushed&per_page=30", &repos); err != nil {
		utils.Sugar.Warnf("github repo list failed: %v", err)
		utils.Error(ctx, http.StatusBadGateway, 50201, "failed to fetch repositories")
		return
	}
	utils.Success(ctx, gin.H{"repositories": repos})
}

// ListCommits returns recent commits for one of the caller's repositories.
func (i *IntegrationController) ListCommits(ctx *gin.Context) {
	repo := ctx.Query("repo")
	if repo == "" {
		utils.Error(ctx, http.StatusBadRequest, 40141, "repo query parameter required")
		return
	}
	token, ok := i.githubToken(ctx)
	if !ok {
		return
	}

	var commits []struct {
		SHA    string `json:"sha"`
		Commit struct {
			Message string `json:"message"`
			Author  struct {
				Name string `json:"name"`
				Date string `json:"date"`
			} `json:"author"`
		} `json:"commit"`
		HTMLURL string `json:"html_url"`
	}
	path := fmt.Sprintf("/repos/%s/commits?per_page=20", url.PathEscape(repo))
	if err := githubGet(token, path, &commits); err != nil {
		utils.Sugar.Warnf("github commit list failed for %s: %v", repo, err)
		utils.Error(ctx, http.StatusBadGateway, 50202, "failed to fetch commits")
		return
	}
	utils.Success(ctx, gin.H{"commits": commits})
}

// ExportEntryToNotion creates a Notion page from one of the caller's
// entries using their stored integration token.
func (i *IntegrationController) ExportEntryToNotion(ctx *gin.Context) {
	entryID, ok := parseUintParam(ctx, "id")
	if !ok {
		utils.Error(ctx, http.StatusBadRequest, 40024, "invalid entry id")
		return
	}
	userID, ok := getUserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var user models.User
	if err := i.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50200, "failed to load user")
		return
	}
	if user.NotionToken == "" {
		utils.Error(ctx, http.StatusBadRequest, 40142, "notion token not configured")
		return
	}

	var entry models.Entry
	if err := i.db.First(&entry, entryID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "entry not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50203, "failed to load entry")
		return
	}
	if entry.UserID != userID {
		utils.Error(ctx, http.StatusForbidden, 40307, "you can only export your own entries")
		return
	}

	parent := config.Get().NotionParentPageID
	if parent == "" {
		utils.Error(ctx, http.StatusServiceUnavailable, 50204, "notion export is not configured")
		return
	}

	client := utils.NewNotionClient(user.NotionToken)
	pageURL, err := client.CreatePage(ctx.Request.Context(), parent, entry.Title, entry.Content)
	if err != nil {
		utils.Sugar.Warnf("notion export failed for entry %d: %v", entry.ID, err)
		utils.Error(ctx, http.StatusBadGateway, 50205, "failed to create notion page")
		return
	}

	utils.Success(ctx, gin.H{"url": pageURL})
}
