package dto

import "github.com/google/uuid"

type ComposeRequest struct {
	VideoId     string   `json:"videoId"`
	StartTime   *float64 `json:"startTime"`
	Duration    *float64 `json:"duration"`
	SoundEffect string   `json:"soundEffect"`
}

type ComposeResult struct {
	Success  bool    `json:"success"`
	VideoId  string  `json:"videoId"`
	Duration float64 `json:"duration"`
	Url      string  `json:"url"`
}

type UploadResult struct {
	Success bool   `json:"success"`
	VideoId string `json:"videoId"`
}

type SoundEffect struct {
	Id          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type DownloadRequest struct {
	VideoId string `json:"videoId"`
	Quality string `json:"quality"`
}

type DownloadResult struct {
	Success    bool   `json:"success"`
	VideoId    string `json:"videoId"`
	OriginalId string `json:"originalId"`
	Title      string `json:"title"`
}

type VideoInfo struct {
	VideoId  string  `json:"videoId"`
	Title    string  `json:"title"`
	Uploader string  `json:"uploader"`
	Duration float64 `json:"duration"`
}

// ComposeJobMessage is the queue payload for backend-initiated compositions.
type ComposeJobMessage struct {
	JobId       uuid.UUID `json:"jobId"`
	VideoId     string    `json:"videoId"`
	StartTime   *float64  `json:"startTime"`
	Duration    *float64  `json:"duration"`
	SoundEffect string    `json:"soundEffect"`
}
