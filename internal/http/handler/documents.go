package handler

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/PracticalMetal/major-notice/internal/http/middleware"
	"github.com/PracticalMetal/major-notice/internal/idgen"
	"github.com/PracticalMetal/major-notice/internal/service"
)

// ListDocuments lists the caller's organization documents with limit & offset.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Param    limit   query  int  false  "page size"  default(10)
// @Param    offset  query  int  false  "offset"     default(0)
// @Success  200  {object}  service.DocumentListResult
// @Security BearerAuth
// @Router   /documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		limitStr := c.Query("limit", "10")
		offsetStr := c.Query("offset", "0")
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LIMIT", "invalid limit")
		}
		offset, err := strconv.Atoi(offsetStr)
		if err != nil || offset < 0 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_OFFSET", "invalid offset")
		}

		res, err := svc.List(c.UserContext(), organization(c), limit, offset)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(res)
	}
}

// UploadDocument runs the upload commit for a multipart/form-data body, field name: file.
//
// @Summary  Upload a notice image
// @Tags     documents
// @Accept   mpfd
// @Produce  json
// @Param    file  formData  file  true  "notice image"
// @Success  201  {object}  model.Document
// @Security BearerAuth
// @Router   /documents [post]
func UploadDocument(svc service.UploadService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), service.UploadRequest{
			UID:         uid(c),
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Size:        fh.Size,
			Body:        f,
		})
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// GetDocument returns one document by ID.
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		doc, err := svc.Get(c.UserContext(), organization(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(doc)
	}
}

// DocumentImage streams the stored image for previews.
func DocumentImage(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		rc, info, err := svc.Image(c.UserContext(), organization(c), id)
		if err != nil {
			return writeServiceError(c, err)
		}
		if info.ContentType != "" {
			c.Set(fiber.HeaderContentType, info.ContentType)
		}
		size := -1
		if info.Size > 0 {
			size = int(info.Size)
		}
		// fasthttp closes rc once the body is written.
		return c.SendStream(rc, size)
	}
}

// DocumentImageLink hands out a short-lived direct download URL for the image.
//
// @Summary  Pre-sign the document image
// @Tags     documents
// @Param    id  path  string  true  "document id"
// @Success  200  {object}  service.ImageLink
// @Security BearerAuth
// @Router   /documents/{id}/image/link [get]
func DocumentImageLink(svc service.DocumentService, ttl time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		link, err := svc.ImageLink(c.UserContext(), organization(c), id, ttl)
		if err != nil {
			return writeServiceError(c, err)
		}
		return c.JSON(link)
	}
}

// SelectDocument makes the document the organization's priority notice.
//
// @Summary  Select the priority document
// @Tags     documents
// @Param    id  path  string  true  "document id"
// @Success  204
// @Security BearerAuth
// @Router   /documents/{id}/priority [put]
func SelectDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Select(c.UserContext(), organization(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// DeleteDocument removes a document record. The stored image is kept.
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := documentID(c)
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := svc.Delete(c.UserContext(), organization(c), id); err != nil {
			return writeServiceError(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func documentID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	return id, idgen.Valid(id)
}

func organization(c *fiber.Ctx) string {
	if claims := middleware.ClaimsFrom(c); claims != nil {
		return claims.Organization
	}
	return ""
}

func uid(c *fiber.Ctx) string {
	if claims := middleware.ClaimsFrom(c); claims != nil {
		return claims.UID()
	}
	return ""
}
