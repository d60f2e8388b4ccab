package queue

import "encoding/json"

// Job is the render-job envelope carried on the stream.
type Job struct {
	ID         string `json:"job_id"`
	Input      string `json:"input"` // local path or s3:// URL
	SlideCount int    `json:"slide_count"`
	OutDir     string `json:"out_dir"`
}

// Encode marshals the job for the stream.
func (j Job) Encode() []byte {
	b, _ := json.Marshal(j)
	return b
}

// DecodeJob unmarshals a stream payload.
func DecodeJob(data []byte) (Job, error) {
	var j Job
	err := json.Unmarshal(data, &j)
	return j, err
}
