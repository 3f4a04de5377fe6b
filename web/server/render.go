package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/pkg/scene"
	"github.com/fogleman/gg"
)

// DefaultTileSize is the tile edge used for web renders
const DefaultTileSize = 32

// RenderRequest represents a render request from the client
type RenderRequest struct {
	SceneRequest
	MaxPasses int `json:"maxPasses"` // Maximum number of passes
}

// TileUpdate is sent after every tile finished within a pass
type TileUpdate struct {
	TileX        int    `json:"tileX"`
	TileY        int    `json:"tileY"`
	TileSize     int    `json:"tileSize"`
	ImageData    string `json:"imageData"` // Base64 encoded PNG of just this tile
	PassNumber   int    `json:"passNumber"`
	SamplesAdded int    `json:"samplesAdded"`
	TileNumber   int    `json:"tileNumber"` // Current tile number in this pass (1-based)
	TotalTiles   int    `json:"totalTiles"`
	TotalPasses  int    `json:"totalPasses"`
}

// PassUpdate is sent after every completed pass
type PassUpdate struct {
	PassNumber     int     `json:"passNumber"`
	TotalPasses    int     `json:"totalPasses"`
	ImageData      string  `json:"imageData"` // Base64 encoded PNG
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int     `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
	SamplesAdded   int     `json:"samplesAdded"`
	PrimitiveCount int     `json:"primitiveCount"`
	IsComplete     bool    `json:"isComplete"`
	ElapsedMs      int64   `json:"elapsedMs"`
}

// parseRenderRequest parses request parameters
func parseRenderRequest(values url.Values) (*RenderRequest, error) {
	req := &RenderRequest{}
	if err := parseSceneParams(values, &req.SceneRequest); err != nil {
		return nil, err
	}

	var err error
	if req.MaxPasses, err = parseIntParam(values, "maxPasses", 5, 1, 100); err != nil {
		return nil, err
	}
	return req, nil
}

// handleRender renders a scene progressively and streams every pass via SSE
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	sceneObj, err := createScene(&req.SceneRequest)
	if errors.Is(err, scene.ErrUnknownScene) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Stop rendering as soon as the client goes away or the handler returns
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan, s.logger)

	config := renderer.DefaultProgressiveConfig()
	config.TileSize = DefaultTileSize
	config.MaxPasses = req.MaxPasses
	config.Seed = req.Seed
	raytracer, err := sceneObj.NewProgressiveRaytracer(config, webLogger)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	setSSEHeaders(w)
	events := &sseWriter{w: w, flusher: flusher}
	s.logger.Infof("%s: rendering %s at %dx%d", renderID, sceneObj.Name,
		sceneObj.SamplingConfig.Width, sceneObj.SamplingConfig.Height)

	startTime := time.Now()
	passChan, tileChan, errChan := raytracer.RenderProgressive(ctx, renderer.RenderOptions{TileUpdates: true})

	// This goroutine is the only writer to the response
	for passChan != nil || tileChan != nil || errChan != nil {
		select {
		case msg := <-consoleChan:
			if events.sendJSON("console", msg) != nil {
				return
			}

		case result, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			update, err := newPassUpdate(result, req.MaxPasses, sceneObj, startTime)
			if err != nil {
				events.send("error", fmt.Sprintf("Encoding pass %d failed: %v", result.PassNumber, err))
				return
			}
			if events.sendJSON("passComplete", update) != nil {
				return
			}

		case tile, ok := <-tileChan:
			if !ok {
				tileChan = nil
				continue
			}
			update, err := newTileUpdate(tile, DefaultTileSize)
			if err != nil {
				events.send("error", fmt.Sprintf("Encoding tile (%d, %d) failed: %v", tile.TileX, tile.TileY, err))
				return
			}
			if events.sendJSON("tile", update) != nil {
				return
			}

		case err, ok := <-errChan:
			if !ok {
				errChan = nil
				continue
			}
			if err != nil {
				s.logger.Warningf("%s: %v", renderID, err)
				events.send("error", fmt.Sprintf("Rendering failed: %v", err))
				return
			}

		case <-ctx.Done():
			// Client disconnected
			return
		}
	}

	// Flush console output produced by the final pass
	for drained := false; !drained; {
		select {
		case msg := <-consoleChan:
			if events.sendJSON("console", msg) != nil {
				return
			}
		default:
			drained = true
		}
	}

	events.send("complete", "Rendering completed")
}

func newTileUpdate(tile renderer.TileCompletionResult, tileSize int) (TileUpdate, error) {
	imageData, err := imageToBase64PNG(tile.TileImage)
	if err != nil {
		return TileUpdate{}, err
	}

	return TileUpdate{
		TileX:        tile.TileX,
		TileY:        tile.TileY,
		TileSize:     tileSize,
		ImageData:    imageData,
		PassNumber:   tile.PassNumber,
		SamplesAdded: tile.Stats.SamplesAdded,
		TileNumber:   tile.TileNumber,
		TotalTiles:   tile.TotalTiles,
		TotalPasses:  tile.TotalPasses,
	}, nil
}

func newPassUpdate(result renderer.PassResult, totalPasses int, sceneObj *scene.Scene, startTime time.Time) (PassUpdate, error) {
	imageData, err := imageToBase64PNG(result.Image)
	if err != nil {
		return PassUpdate{}, err
	}

	return PassUpdate{
		PassNumber:     result.PassNumber,
		TotalPasses:    totalPasses,
		ImageData:      imageData,
		Width:          result.Image.Width,
		Height:         result.Image.Height,
		TotalPixels:    result.Stats.TotalPixels,
		TotalSamples:   result.Stats.TotalSamples,
		AverageSamples: result.Stats.AverageSamples,
		MinSamples:     result.Stats.MinSamples,
		MaxSamplesUsed: result.Stats.MaxSamplesUsed,
		SamplesAdded:   result.Stats.SamplesAdded,
		PrimitiveCount: sceneObj.GetPrimitiveCount(),
		IsComplete:     result.IsLast,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
	}, nil
}

// setSSEHeaders sets the required headers for Server-Sent Events
func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// sseWriter writes Server-Sent Events and flushes each one
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (sw *sseWriter) send(event, data string) error {
	if _, err := fmt.Fprintf(sw.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	sw.flusher.Flush()
	return nil
}

func (sw *sseWriter) sendJSON(event string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return sw.send(event, string(data))
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img *renderer.Image) (string, error) {
	var buf bytes.Buffer
	if err := gg.NewContextForRGBA(img.ToRGBA()).EncodePNG(&buf); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
