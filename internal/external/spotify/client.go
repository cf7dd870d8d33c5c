// Package spotify реализует клиент для работы с Spotify Web API.
package spotify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"hookbot/internal/model"

	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap"
)

// tokenTransport добавляет токен к каждому запросу
type tokenTransport struct {
	base      http.RoundTripper
	token     string
	tokenType string
}

func (t *tokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.Header.Set("Authorization", t.tokenType+" "+t.token)

	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}

	return base.RoundTrip(req)
}

// Client представляет клиент для работы с Spotify API
type Client struct {
	clientID     string
	clientSecret string
	logger       *zap.Logger
}

var _ Interface = (*Client)(nil)

// NewClient создает новый Spotify клиент с использованием Client Credentials Flow.
// Поток не требует браузера, поэтому подходит и для headless окружений.
func NewClient(clientID, clientSecret string, logger *zap.Logger) (*Client, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("spotify client ID and secret are required")
	}

	logger.Info("Spotify client created successfully with client credentials flow")

	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger,
	}, nil
}

// createSpotifyClient создает новый Spotify клиент для каждого запроса
func (c *Client) createSpotifyClient(ctx context.Context) (*spotify.Client, error) {
	httpClient := &http.Client{}

	// Подготавливаем данные для запроса токена согласно документации Spotify
	data := url.Values{}
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, "POST", "https://accounts.spotify.com/api/token", strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}

	credentials := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))
	req.Header.Set("Authorization", "Basic "+credentials)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", zap.Error(closeErr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var tokenResponse struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&tokenResponse); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}

	if tokenResponse.AccessToken == "" {
		return nil, fmt.Errorf("no access token received")
	}

	tokenClient := &http.Client{
		Transport: &tokenTransport{
			base:      http.DefaultTransport,
			token:     tokenResponse.AccessToken,
			tokenType: tokenResponse.TokenType,
		},
	}

	client := spotify.New(tokenClient)

	c.logger.Debug("Created new Spotify client for request")

	return client, nil
}

// SearchPlaylistByName ищет плейлист по имени и возвращает первый результат.
// Поиск подстрочный и неоднозначный: побеждает первый результат источника.
func (c *Client) SearchPlaylistByName(ctx context.Context, name string) (*model.PlaylistRef, error) {
	client, err := c.createSpotifyClient(ctx)
	if err != nil {
		return nil, &model.SourceLookupError{Kind: model.LookupTransient, Query: name, Err: err}
	}

	result, err := client.Search(ctx, name, spotify.SearchTypePlaylist, spotify.Limit(1))
	if err != nil {
		return nil, c.classifyLookupError(name, err)
	}

	if result.Playlists == nil || len(result.Playlists.Playlists) == 0 {
		return nil, &model.SourceLookupError{Kind: model.LookupNotFound, Query: name}
	}

	found := result.Playlists.Playlists[0]

	c.logger.Info("Resolved playlist by name",
		zap.String("query", name),
		zap.String("playlist_id", string(found.ID)),
		zap.String("playlist_name", found.Name))

	return &model.PlaylistRef{
		ID:          string(found.ID),
		Name:        found.Name,
		ExternalURL: found.ExternalURLs["spotify"],
		SnapshotID:  found.SnapshotID,
		TotalTracks: int(found.Tracks.Total),
	}, nil
}

// GetPlaylistByID возвращает плейлист по его ID
func (c *Client) GetPlaylistByID(ctx context.Context, playlistID string) (*model.PlaylistRef, error) {
	client, err := c.createSpotifyClient(ctx)
	if err != nil {
		return nil, &model.SourceLookupError{Kind: model.LookupTransient, Query: playlistID, Err: err}
	}

	playlist, err := client.GetPlaylist(ctx, spotify.ID(playlistID))
	if err != nil {
		return nil, c.classifyLookupError(playlistID, err)
	}

	return &model.PlaylistRef{
		ID:          string(playlist.ID),
		Name:        playlist.Name,
		ExternalURL: playlist.ExternalURLs["spotify"],
		SnapshotID:  playlist.SnapshotID,
		TotalTracks: int(playlist.Tracks.Total),
	}, nil
}

// GetPlaylistTracksPage возвращает одну страницу треков плейлиста
func (c *Client) GetPlaylistTracksPage(ctx context.Context, playlistID string, limit, offset int) (*TracksPage, error) {
	client, err := c.createSpotifyClient(ctx)
	if err != nil {
		return nil, &model.SourceLookupError{Kind: model.LookupTransient, Query: playlistID, Err: err}
	}

	c.logger.Debug("Requesting playlist items page",
		zap.String("playlist_id", playlistID),
		zap.Int("offset", offset),
		zap.Int("limit", limit))

	page, err := client.GetPlaylistItems(ctx, spotify.ID(playlistID), spotify.Limit(limit), spotify.Offset(offset))
	if err != nil {
		c.logger.Error("Spotify API request failed",
			zap.String("playlist_id", playlistID),
			zap.Int("offset", offset),
			zap.Error(err))
		return nil, c.classifyLookupError(playlistID, err)
	}

	items := make([]model.RawTrack, 0, len(page.Items))
	for _, item := range page.Items {
		// Пропускаем эпизоды и локальные файлы без полного объекта трека
		if item.Track.Track == nil {
			continue
		}

		track := item.Track.Track

		artistNames := make([]string, 0, len(track.Artists))
		artistIDs := make([]string, 0, len(track.Artists))
		for _, artist := range track.Artists {
			artistNames = append(artistNames, artist.Name)
			artistIDs = append(artistIDs, string(artist.ID))
		}

		albumArtURL := ""
		if len(track.Album.Images) > 0 {
			albumArtURL = track.Album.Images[0].URL
		}

		items = append(items, model.RawTrack{
			ID:          string(track.ID),
			Title:       track.Name,
			ArtistNames: artistNames,
			ArtistIDs:   artistIDs,
			AlbumName:   track.Album.Name,
			AlbumArtURL: albumArtURL,
			ExternalURL: track.ExternalURLs["spotify"],
			AddedBy:     item.AddedBy.ID,
			AddedAt:     item.AddedAt,
		})
	}

	return &TracksPage{
		Items: items,
		Total: int(page.Total),
	}, nil
}

// GetArtistGenres возвращает жанры исполнителя
func (c *Client) GetArtistGenres(ctx context.Context, artistID string) ([]string, error) {
	client, err := c.createSpotifyClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create spotify client: %w", err)
	}

	artist, err := client.GetArtist(ctx, spotify.ID(artistID))
	if err != nil {
		return nil, fmt.Errorf("failed to get artist %s: %w", artistID, err)
	}

	return artist.Genres, nil
}

// classifyLookupError разделяет "не найдено" и временные ошибки источника
func (c *Client) classifyLookupError(query string, err error) error {
	var apiErr spotify.Error
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
		return &model.SourceLookupError{Kind: model.LookupNotFound, Query: query, Err: err}
	}

	return &model.SourceLookupError{Kind: model.LookupTransient, Query: query, Err: err}
}
