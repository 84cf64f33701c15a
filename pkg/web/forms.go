package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"slices"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/talentpivot/talentpivot/pkg/artifacts"
	"github.com/talentpivot/talentpivot/pkg/models"
	"github.com/talentpivot/talentpivot/pkg/persistence"
	"github.com/talentpivot/talentpivot/pkg/workflow"
)

// reviewerFields maps multipart field names to campaign roles.
var reviewerFields = map[string]models.Role{
	"l1s": models.RoleL1,
	"l2":  models.RoleL2,
	"l3":  models.RoleL3,
	"hrs": models.RoleHR,
}

func parseCampaignForm(c fiber.Ctx) (*workflow.CreateCampaignInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.New("expected a multipart form")
	}

	input := &workflow.CreateCampaignInput{
		Name:      formValue(form, "campaignName"),
		Note:      formValue(form, "note"),
		StartDate: formValue(form, "startDate"),
		EndDate:   formValue(form, "endDate"),
		Reviewers: models.Reviewers{},
	}

	for field, role := range reviewerFields {
		emails, err := parseEmailList(formValue(form, field))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", field, err)
		}

		if len(emails) > 0 {
			input.Reviewers[role] = emails
		}
	}

	files := slices.Concat(form.File["jdFiles"], form.File["jdFiles[]"])
	for _, header := range files {
		upload, err := readUpload(header)
		if err != nil {
			return nil, err
		}

		input.JobDescriptions = append(input.JobDescriptions, upload)
	}

	return input, nil
}

func parseCandidateForm(c fiber.Ctx) (*workflow.AddCandidateInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, errors.New("expected a multipart form")
	}

	input := &workflow.AddCandidateInput{
		FullName: formValue(form, "full_name"),
		Email:    formValue(form, "email_id"),
		Phone:    formValue(form, "phone"),
	}

	headers := form.File["resume"]
	if len(headers) > 1 {
		return nil, errors.New("expected a single resume file")
	}

	if len(headers) == 1 {
		upload, err := readUpload(headers[0])
		if err != nil {
			return nil, err
		}

		input.Resume = &upload
	}

	return input, nil
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}

	return ""
}

// parseEmailList accepts a JSON array of emails or of {"email": ...} objects.
func parseEmailList(value string) ([]string, error) {
	if value == "" {
		return nil, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal([]byte(value), &raw); err != nil {
		return nil, errors.New("expected a JSON array of emails")
	}

	emails := make([]string, 0, len(raw))

	for _, item := range raw {
		var email string
		if err := json.Unmarshal(item, &email); err == nil {
			emails = append(emails, email)

			continue
		}

		var entry EmailEntry
		if err := json.Unmarshal(item, &entry); err != nil {
			return nil, errors.New("expected a JSON array of emails")
		}

		emails = append(emails, entry.Email)
	}

	return emails, nil
}

// readUpload reads at most one byte past the size limit so oversize files are rejected
// by the artifact store without buffering them whole.
func readUpload(header *multipart.FileHeader) (workflow.Upload, error) {
	file, err := header.Open()
	if err != nil {
		return workflow.Upload{}, fmt.Errorf("failed to read %s: %w", header.Filename, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, artifacts.MaxFileSize+1))
	if err != nil {
		return workflow.Upload{}, fmt.Errorf("failed to read %s: %w", header.Filename, err)
	}

	return workflow.Upload{FileName: header.Filename, Data: data}, nil
}

func parseListCandidatesQuery(c fiber.Ctx) (*persistence.ListCandidatesOptions, error) {
	opts := &persistence.ListCandidatesOptions{
		Status: c.Query("status"),
		Name:   c.Query("name"),
		Email:  c.Query("email"),
		Phone:  c.Query("phone"),
	}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return nil, err
		}

		opts.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return nil, err
		}

		opts.Offset = offset
	}

	return opts, nil
}
