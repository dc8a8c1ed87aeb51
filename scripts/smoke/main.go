package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

// Drives the enrollment-creation workflow end to end against a running
// deployment: creates a student and a course, enrolls the student, verifies
// that a second enrollment for the same pair conflicts, drops the first and
// re-enrolls, then cleans up. Exits non-zero on the first failed step.

type envelope struct {
	Status  string          `json:"status"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type runner struct {
	client         *http.Client
	studentBase    string
	courseBase     string
	enrollmentBase string
	failures       int
}

func main() {
	var (
		studentBase    string
		courseBase     string
		enrollmentBase string
		timeout        time.Duration
	)

	flag.StringVar(&studentBase, "student-base", "http://localhost:3001", "Student service base URL")
	flag.StringVar(&courseBase, "course-base", "http://localhost:3002", "Course service base URL")
	flag.StringVar(&enrollmentBase, "enrollment-base", "http://localhost:3004", "Enrollment service base URL")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	r := &runner{
		client:         &http.Client{Timeout: timeout},
		studentBase:    studentBase,
		courseBase:     courseBase,
		enrollmentBase: enrollmentBase,
	}

	suffix := time.Now().UnixNano()

	studentID := r.create("student", studentBase+"/api/students", map[string]interface{}{
		"firstName": "Smoke",
		"lastName":  "Test",
		"email":     fmt.Sprintf("smoke-%d@example.edu", suffix),
		"studentId": fmt.Sprintf("SMK-%d", suffix),
	})
	courseID := r.create("course", courseBase+"/api/courses", map[string]interface{}{
		"courseCode": fmt.Sprintf("SMK-%d", suffix),
		"courseName": "Smoke Testing 101",
		"credits":    3,
	})

	if r.failures > 0 {
		os.Exit(1)
	}

	enrollBody := map[string]interface{}{"studentId": studentID, "courseId": courseID}

	enrollmentID := r.create("enrollment", enrollmentBase+"/api/enrollments", enrollBody)
	r.expectStatus("duplicate enrollment rejected", http.MethodPost, enrollmentBase+"/api/enrollments", enrollBody, http.StatusConflict)
	r.checkExport(courseID)
	r.expectStatus("drop enrollment", http.MethodPut, fmt.Sprintf("%s/api/enrollments/%d", enrollmentBase, enrollmentID), map[string]interface{}{"status": "dropped"}, http.StatusOK)
	reEnrollmentID := r.create("re-enrollment after drop", enrollmentBase+"/api/enrollments", enrollBody)

	r.expectStatus("delete re-enrollment", http.MethodDelete, fmt.Sprintf("%s/api/enrollments/%d", enrollmentBase, reEnrollmentID), nil, http.StatusOK)
	r.expectStatus("delete enrollment", http.MethodDelete, fmt.Sprintf("%s/api/enrollments/%d", enrollmentBase, enrollmentID), nil, http.StatusOK)
	r.expectStatus("delete course", http.MethodDelete, fmt.Sprintf("%s/api/courses/%d", courseBase, courseID), nil, http.StatusOK)
	r.expectStatus("delete student", http.MethodDelete, fmt.Sprintf("%s/api/students/%d", studentBase, studentID), nil, http.StatusOK)

	if r.failures > 0 {
		log.Printf("smoke run finished with %d failure(s)", r.failures)
		os.Exit(1)
	}
	log.Println("smoke run passed")
}

// create POSTs the payload, expects 201 and returns the created row's id.
func (r *runner) create(step, url string, payload map[string]interface{}) int64 {
	body, status, err := r.do(http.MethodPost, url, payload)
	if err != nil {
		r.fail(step, err)
		return 0
	}
	if status != http.StatusCreated {
		r.fail(step, fmt.Errorf("expected 201, got %d: %s", status, body))
		return 0
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		r.fail(step, fmt.Errorf("bad envelope: %w", err))
		return 0
	}
	var row struct {
		ID int64 `json:"id"`
	}
	if err := json.Unmarshal(env.Data, &row); err != nil || row.ID == 0 {
		r.fail(step, fmt.Errorf("no id in response: %s", body))
		return 0
	}
	log.Printf("ok: %s (id=%d)", step, row.ID)
	return row.ID
}

// checkExport requests a CSV roster export for the course, polls it to
// completion and downloads the result.
func (r *runner) checkExport(courseID int64) {
	body, status, err := r.do(http.MethodPost, r.enrollmentBase+"/api/enrollments/exports", map[string]interface{}{
		"courseId": courseID,
		"format":   "csv",
	})
	if err != nil || status != http.StatusCreated {
		r.fail("request export", fmt.Errorf("status %d err %v: %s", status, err, body))
		return
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		r.fail("request export", fmt.Errorf("bad envelope: %w", err))
		return
	}
	var job struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		DownloadURL string `json:"downloadUrl"`
	}
	if err := json.Unmarshal(env.Data, &job); err != nil || job.ID == "" {
		r.fail("request export", fmt.Errorf("no job in response: %s", body))
		return
	}

	deadline := time.Now().Add(10 * time.Second)
	for job.Status != "finished" && job.Status != "failed" {
		if time.Now().After(deadline) {
			r.fail("export finished", fmt.Errorf("timed out in status %q", job.Status))
			return
		}
		time.Sleep(200 * time.Millisecond)
		body, status, err = r.do(http.MethodGet, r.enrollmentBase+"/api/enrollments/exports/"+job.ID, nil)
		if err != nil || status != http.StatusOK {
			r.fail("export status", fmt.Errorf("status %d err %v: %s", status, err, body))
			return
		}
		if err := json.Unmarshal(body, &env); err != nil {
			r.fail("export status", fmt.Errorf("bad envelope: %w", err))
			return
		}
		if err := json.Unmarshal(env.Data, &job); err != nil {
			r.fail("export status", fmt.Errorf("bad job payload: %s", body))
			return
		}
	}
	if job.Status != "finished" || job.DownloadURL == "" {
		r.fail("export finished", fmt.Errorf("job ended as %q: %s", job.Status, body))
		return
	}

	raw, status, err := r.do(http.MethodGet, r.enrollmentBase+job.DownloadURL, nil)
	if err != nil || status != http.StatusOK || len(raw) == 0 {
		r.fail("export download", fmt.Errorf("status %d err %v", status, err))
		return
	}
	log.Printf("ok: roster export (%d bytes)", len(raw))
}

func (r *runner) expectStatus(step, method, url string, payload map[string]interface{}, want int) {
	body, status, err := r.do(method, url, payload)
	if err != nil {
		r.fail(step, err)
		return
	}
	if status != want {
		r.fail(step, fmt.Errorf("expected %d, got %d: %s", want, status, body))
		return
	}
	log.Printf("ok: %s", step)
}

func (r *runner) do(method, url string, payload map[string]interface{}) ([]byte, int, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, err
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, 0, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func (r *runner) fail(step string, err error) {
	log.Printf("FAIL: %s: %v", step, err)
	r.failures++
}
