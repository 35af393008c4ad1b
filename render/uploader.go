package render

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// VideoMetadata describes the uploaded video.
type VideoMetadata struct {
	Title       string
	Description string
	Tags        []string
	CategoryID  string
}

// Uploader publishes finished videos to YouTube using a service account.
type Uploader struct {
	service *youtube.Service
}

// NewUploader creates an uploader from a service account JSON file.
func NewUploader(ctx context.Context, serviceAccountFile string) (*Uploader, error) {
	data, err := os.ReadFile(serviceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(data, youtube.YoutubeUploadScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account: %w", err)
	}

	service, err := youtube.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create youtube service: %w", err)
	}
	return &Uploader{service: service}, nil
}

// UploadVideo uploads the file at videoPath and returns its video ID.
func (u *Uploader) UploadVideo(videoPath string, metadata VideoMetadata) (string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", fmt.Errorf("open video file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", fmt.Errorf("stat video file: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"path":    videoPath,
		"size_mb": fmt.Sprintf("%.2f", float64(info.Size())/(1024*1024)),
	}).Info("uploading video")

	video := &youtube.Video{
		Snippet: &youtube.VideoSnippet{
			Title:       metadata.Title,
			Description: metadata.Description,
			Tags:        metadata.Tags,
			CategoryId:  metadata.CategoryID,
		},
		Status: &youtube.VideoStatus{
			PrivacyStatus:           "public",
			SelfDeclaredMadeForKids: false,
		},
	}

	call := u.service.Videos.Insert([]string{"snippet", "status"}, video).Media(file)
	response, err := call.Do()
	if err != nil {
		return "", fmt.Errorf("upload video: %w", err)
	}

	logrus.WithField("video_id", response.Id).Info("video uploaded")
	return response.Id, nil
}

// GenerateMetadata builds YouTube metadata from the topic title and script.
func GenerateMetadata(title, script, notionURL string) VideoMetadata {
	if title == "" {
		title = titleFromScript(script)
	}
	if len(title) > 100 {
		title = title[:97] + "..."
	}

	var desc strings.Builder
	desc.WriteString(firstSentence(script))
	if notionURL != "" {
		fmt.Fprintf(&desc, "\n\nNotes: %s", notionURL)
	}
	desc.WriteString("\n\n#shorts")

	return VideoMetadata{
		Title:       title,
		Description: desc.String(),
		Tags:        []string{"shorts", "explainer"},
		CategoryID:  "28",
	}
}

// titleFromScript takes the first few words of the narration as a fallback
// title.
func titleFromScript(script string) string {
	words := strings.Fields(script)
	if len(words) > 10 {
		words = words[:10]
	}
	return strings.Join(words, " ")
}

func firstSentence(script string) string {
	for _, stop := range []string{". ", "! ", "? "} {
		if idx := strings.Index(script, stop); idx >= 0 {
			return script[:idx+1]
		}
	}
	return script
}
