package server

import (
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKeyLayout(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	verseID := node.Generate()

	key := objectKey(nil, "", "photo.JPG")
	assert.True(t, strings.HasPrefix(key, "uploads/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))

	key = objectKey(&verseID, "", "doc.pdf")
	assert.True(t, strings.HasPrefix(key, "verses/"+verseID.String()+"/"))

	key = objectKey(&verseID, "Marketing/Summer Campaign", "clip.mp4")
	assert.True(t, strings.HasPrefix(key, "verses/"+verseID.String()+"/Marketing/Summer-Campaign/"))
	assert.True(t, strings.HasSuffix(key, ".mp4"))

	// Generated names never collide on the original filename.
	assert.NotEqual(t, objectKey(&verseID, "", "doc.pdf"), objectKey(&verseID, "", "doc.pdf"))
}

func TestVerseIDFromKey(t *testing.T) {
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	verseID := node.Generate()

	got, ok := verseIDFromKey("verses/" + verseID.String() + "/Marketing/file.png")
	assert.True(t, ok)
	assert.Equal(t, verseID, got)

	_, ok = verseIDFromKey("uploads/file.png")
	assert.False(t, ok)
	_, ok = verseIDFromKey("verses/not-a-number/file.png")
	assert.False(t, ok)
	_, ok = verseIDFromKey("verses/" + verseID.String())
	assert.False(t, ok)
}

func TestSanitizeKeySegment(t *testing.T) {
	assert.Equal(t, "Marketing/Summer-2026", sanitizeKeySegment("Marketing/Summer 2026"))
	assert.Equal(t, "a/b", sanitizeKeySegment("/a/b/"))
	assert.Equal(t, "safe-name_1.2", sanitizeKeySegment("safe-name_1.2"))
	assert.Equal(t, "mlt", sanitizeKeySegment("ümläüt"))
}

func TestSanitizeMetadataValue(t *testing.T) {
	assert.Equal(t, "report final.pdf", sanitizeMetadataValue("report final.pdf"))
	assert.Equal(t, "clean", sanitizeMetadataValue("cle\nan\r"))
	assert.Equal(t, "", sanitizeMetadataValue("\x00\x01"))
}

func TestAllowedContentType(t *testing.T) {
	allowed := []string{"image/png", "application/pdf"}
	assert.True(t, allowedContentType("image/png", allowed))
	assert.True(t, allowedContentType("IMAGE/PNG", allowed))
	assert.False(t, allowedContentType("text/html", allowed))
	assert.False(t, allowedContentType("", allowed))
}
