package server

import (
	"mime/multipart"
	"net/http"
	"path"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	auditdomain "github.com/samuel161415/BryteSpring/internal/audit/domain"
	"github.com/samuel161415/BryteSpring/internal/providers/storage"
	roledomain "github.com/samuel161415/BryteSpring/internal/role/domain"
)

type uploadResult struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	FileName    string `json:"file_name"`
}

func (s *Server) UploadSingle(c *gin.Context) {
	ctxOK, verseID, channelPath := s.resolveUploadTarget(c)
	if !ctxOK {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		AbortWithError(c, newValidationError("file", "required", "file is required"))
		return
	}

	result, ok := s.storeUpload(c, verseID, channelPath, file)
	if !ok {
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (s *Server) UploadMultiple(c *gin.Context) {
	ctxOK, verseID, channelPath := s.resolveUploadTarget(c)
	if !ctxOK {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		AbortWithError(c, newValidationError("files", "required", "at least one file is required"))
		return
	}

	results := make([]uploadResult, 0, len(files))
	for _, file := range files {
		result, ok := s.storeUpload(c, verseID, channelPath, file)
		if !ok {
			return
		}
		results = append(results, *result)
	}

	c.JSON(http.StatusCreated, gin.H{"uploads": results})
}

type deleteUploadBody struct {
	Key string `json:"key" binding:"required"`
}

func (s *Server) DeleteUpload(c *gin.Context) {
	user, ok := s.currentUser(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var body deleteUploadBody
	if err := c.ShouldBindJSON(&body); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	key := path.Clean(strings.TrimPrefix(strings.TrimSpace(body.Key), "/"))
	if key == "." || strings.Contains(key, "..") {
		AbortWithError(c, newValidationError("key", "invalid_key", "invalid object key"))
		return
	}

	if verseID, ok := verseIDFromKey(key); ok {
		if _, ok := s.requireCapability(c, verseID, roledomain.CapabilityManageAssets); !ok {
			return
		}
	} else if !user.IsSuperadmin {
		AbortWithError(c, ErrForbidden)
		return
	}

	if err := s.objectStore.Delete(c.Request.Context(), key); err != nil {
		AbortWithError(c, mapStorageError(err))
		return
	}

	s.recordUploadAudit(c, nil, auditdomain.ActionDelete, key)
	c.Status(http.StatusNoContent)
}

// resolveUploadTarget reads verse_id and the optional channel_id form
// values, checks the manage_assets capability and returns the channel
// path used as key prefix. Uploads without a verse land under uploads/.
func (s *Server) resolveUploadTarget(c *gin.Context) (bool, *snowflake.ID, string) {
	rawVerse := strings.TrimSpace(c.PostForm("verse_id"))
	if rawVerse == "" {
		user, ok := s.currentUser(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return false, nil, ""
		}
		if !user.IsSuperadmin {
			AbortWithError(c, newValidationError("verse_id", "required", "verse_id is required"))
			return false, nil, ""
		}
		return true, nil, ""
	}

	verseID, err := snowflake.ParseString(rawVerse)
	if err != nil {
		AbortWithError(c, newValidationError("verse_id", "invalid_id", "invalid identifier"))
		return false, nil, ""
	}

	if _, ok := s.requireCapability(c, verseID, roledomain.CapabilityManageAssets); !ok {
		return false, nil, ""
	}

	channelPath := ""
	if rawChannel := strings.TrimSpace(c.PostForm("channel_id")); rawChannel != "" {
		channelID, err := snowflake.ParseString(rawChannel)
		if err != nil {
			AbortWithError(c, newValidationError("channel_id", "invalid_id", "invalid identifier"))
			return false, nil, ""
		}
		channel, err := s.channelSvc.Get(c.Request.Context(), channelID)
		if err != nil {
			AbortWithError(c, err)
			return false, nil, ""
		}
		if channel.VerseID != verseID {
			AbortWithError(c, newValidationError("channel_id", "verse_mismatch", "channel belongs to another verse"))
			return false, nil, ""
		}
		channelPath = channel.Path
	}

	return true, &verseID, channelPath
}

func (s *Server) storeUpload(c *gin.Context, verseID *snowflake.ID, channelPath string, file *multipart.FileHeader) (*uploadResult, bool) {
	limits := s.defaults.Current().Upload

	if file.Size > limits.MaxBytes {
		AbortWithError(c, newValidationError("file", "too_large", "file exceeds the upload size limit"))
		return nil, false
	}

	contentType := strings.TrimSpace(file.Header.Get("Content-Type"))
	if !allowedContentType(contentType, limits.AllowedContentTypes) {
		AbortWithError(c, newValidationError("file", "unsupported_type", "content type is not allowed"))
		return nil, false
	}

	reader, err := file.Open()
	if err != nil {
		AbortWithError(c, err)
		return nil, false
	}
	defer reader.Close()

	key := objectKey(verseID, channelPath, file.Filename)
	metadata := map[string]string{
		"original-name": sanitizeMetadataValue(file.Filename),
	}
	if user, ok := s.currentUser(c); ok {
		metadata["uploaded-by"] = user.ID.String()
	}

	url, err := s.objectStore.Put(c.Request.Context(), key, reader, file.Size, contentType, metadata)
	if err != nil {
		AbortWithError(c, mapStorageError(err))
		return nil, false
	}

	s.recordUploadAudit(c, verseID, auditdomain.ActionUpload, key)

	return &uploadResult{
		Key:         key,
		URL:         url,
		Size:        file.Size,
		ContentType: contentType,
		FileName:    file.Filename,
	}, true
}

func (s *Server) recordUploadAudit(c *gin.Context, verseID *snowflake.ID, action, key string) {
	_ = s.auditSvc.Record(c.Request.Context(), auditdomain.Entry{
		VerseID:      verseID,
		Action:       action,
		ResourceType: auditdomain.ResourceUpload,
		ResourceID:   &key,
	})
}

func objectKey(verseID *snowflake.ID, channelPath, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	name := uuid.NewString() + ext

	if verseID == nil {
		return path.Join("uploads", name)
	}
	if channelPath == "" {
		return path.Join("verses", verseID.String(), name)
	}
	return path.Join("verses", verseID.String(), sanitizeKeySegment(channelPath), name)
}

func verseIDFromKey(key string) (snowflake.ID, bool) {
	parts := strings.SplitN(key, "/", 3)
	if len(parts) < 3 || parts[0] != "verses" {
		return 0, false
	}
	id, err := snowflake.ParseString(parts[1])
	if err != nil {
		return 0, false
	}
	return id, true
}

func allowedContentType(contentType string, allowed []string) bool {
	if contentType == "" {
		return false
	}
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, contentType) {
			return true
		}
	}
	return false
}

// sanitizeKeySegment keeps channel paths usable as object key prefixes.
func sanitizeKeySegment(segment string) string {
	var b strings.Builder
	for _, r := range segment {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '/', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	return strings.Trim(b.String(), "/")
}

// sanitizeMetadataValue strips characters that are not safe in S3
// metadata headers.
func sanitizeMetadataValue(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= 32 && r < 127 {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func mapStorageError(err error) error {
	if err == storage.ErrNotConfigured {
		return ErrServiceUnavailable
	}
	return err
}
