package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Starship01-akaSniper/youtube-shorts-automation/internal/pipeline"
	"github.com/Starship01-akaSniper/youtube-shorts-automation/pkg/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	yt "google.golang.org/api/youtube/v3"
	"google.golang.org/api/option"
)

// People & Blogs
const defaultCategoryID = "22"

// Uploader publishes finished videos through the YouTube Data API.
// Authorization uses a previously obtained OAuth token stored at tokenPath;
// obtaining the initial token is an interactive, out-of-band step.
type Uploader struct {
	service *yt.Service
}

// NewUploader builds an authorized uploader from the stored client
// credentials and token file.
func NewUploader(ctx context.Context, clientID, clientSecret, tokenPath string) (*Uploader, error) {
	conf := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{yt.YoutubeUploadScope},
		RedirectURL:  "http://localhost",
	}

	token, err := loadToken(tokenPath)
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageUpload, pipeline.ErrConfig,
			fmt.Sprintf("no usable OAuth token at %s, run the authorization flow first", tokenPath), err)
	}

	service, err := yt.NewService(ctx, option.WithHTTPClient(conf.Client(ctx, token)))
	if err != nil {
		return nil, pipeline.NewErrorWithCause(pipeline.StageUpload, pipeline.ErrConfig, "build youtube service", err)
	}
	return &Uploader{service: service}, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file: %w", err)
	}
	return &token, nil
}

// SaveToken persists an OAuth token for later runs.
func SaveToken(path string, token *oauth2.Token) error {
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// Upload publishes the video as private and returns its id and watch URL.
func (u *Uploader) Upload(ctx context.Context, videoPath, title, description string, tags []string) (string, string, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return "", "", pipeline.NewErrorWithCause(pipeline.StageUpload, pipeline.ErrIO,
			fmt.Sprintf("video file not found: %s", videoPath), err)
	}
	defer file.Close()

	upload := &yt.Video{
		Snippet: &yt.VideoSnippet{
			Title:       title,
			Description: description,
			Tags:        tags,
			CategoryId:  defaultCategoryID,
		},
		Status: &yt.VideoStatus{
			PrivacyStatus:           "private",
			SelfDeclaredMadeForKids: false,
		},
	}

	call := u.service.Videos.Insert([]string{"snippet", "status"}, upload)
	response, err := call.Media(file).Context(ctx).Do()
	if err != nil {
		return "", "", pipeline.NewErrorWithCause(pipeline.StageUpload, pipeline.ErrProvider, "youtube upload failed", err)
	}

	url := fmt.Sprintf("https://www.youtube.com/watch?v=%s", response.Id)
	log.Info("Uploaded video %s (%s)", response.Id, url)
	return response.Id, url, nil
}
