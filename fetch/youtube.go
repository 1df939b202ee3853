package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"ewintr.nl/vidsum/model"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/youtube/v3"
)

type Youtube struct {
	client *youtube.Service
}

func NewYoutube(client *youtube.Service) *Youtube {
	return &Youtube{client: client}
}

func (y *Youtube) FetchMetadata(ctx context.Context, ids []model.YoutubeVideoID) (map[model.YoutubeVideoID]model.Metadata, error) {
	strIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		strIDs = append(strIDs, string(id))
	}

	call := y.client.Videos.
		List([]string{"snippet"}).
		Id(strings.Join(strIDs, ",")).
		Context(ctx)

	response, err := call.Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
			return map[model.YoutubeVideoID]model.Metadata{}, fmt.Errorf("%w: %v", model.ErrUpstreamAuth, err)
		}

		return map[model.YoutubeVideoID]model.Metadata{}, err
	}

	mds := make(map[model.YoutubeVideoID]model.Metadata, len(response.Items))
	for _, item := range response.Items {
		mds[model.YoutubeVideoID(item.Id)] = model.Metadata{
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			Description:  item.Snippet.Description,
			PublishedAt:  item.Snippet.PublishedAt,
		}
	}

	return mds, nil
}
