package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"relief-claims-api/apperrors"
	"relief-claims-api/models"
	"relief-claims-api/services"
)

const dateLayout = "2006-01-02"

type ClaimController struct {
	engine *services.WorkflowEngine
}

func NewClaimController(engine *services.WorkflowEngine) *ClaimController {
	return &ClaimController{engine: engine}
}

type CreateClaimRequest struct {
	ApplicantName        string `json:"applicant_name"`
	Age                  int    `json:"age"`
	Sex                  string `json:"sex"`
	DateOfBirth          string `json:"date_of_birth"`
	DateOfDeath          string `json:"date_of_death"`
	Location             string `json:"location"`
	ResidentialAddress   string `json:"residential_address"`
	FamilyDetails        string `json:"family_details"`
	PatwariChecked       bool   `json:"patwari_checked"`
	ThanaInchargeChecked bool   `json:"thana_incharge_checked"`
}

func (r CreateClaimRequest) toInput() (services.ClaimInput, error) {
	in := services.ClaimInput{
		ApplicantName:        r.ApplicantName,
		Age:                  r.Age,
		Sex:                  r.Sex,
		Location:             r.Location,
		ResidentialAddress:   r.ResidentialAddress,
		FamilyDetails:        r.FamilyDetails,
		PatwariChecked:       r.PatwariChecked,
		ThanaInchargeChecked: r.ThanaInchargeChecked,
	}

	var fields []apperrors.FieldError
	parse := func(field, value string) time.Time {
		if value == "" {
			return time.Time{}
		}
		t, err := time.Parse(dateLayout, value)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: field, Message: "must be YYYY-MM-DD"})
		}
		return t
	}
	in.DateOfBirth = parse("date_of_birth", r.DateOfBirth)
	in.DateOfDeath = parse("date_of_death", r.DateOfDeath)
	if len(fields) > 0 {
		return in, apperrors.Validation("invalid claim dates", fields...)
	}
	return in, nil
}

type ActionRequest struct {
	Action          models.Action `json:"action" binding:"required"`
	Notes           string        `json:"notes"`
	ExpectedVersion *int          `json:"expected_version"`
}

// ListClaims returns the caller's queue.
func (cc *ClaimController) ListClaims(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		return
	}
	claims, err := cc.engine.ListClaimsForRole(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claims": claims, "total": len(claims)})
}

func (cc *ClaimController) CreateClaim(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid claim payload")
		return
	}
	in, err := req.toInput()
	if err != nil {
		respondError(c, err)
		return
	}

	claim, err := cc.engine.CreateClaim(c.Request.Context(), in, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"claim": claim, "message": "Claim created"})
}

func (cc *ClaimController) GetClaim(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		return
	}
	claim, err := cc.engine.GetClaim(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

func (cc *ClaimController) SubmitClaim(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		return
	}
	claim, err := cc.engine.SubmitClaim(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim": claim, "message": "Claim submitted"})
}

func (cc *ClaimController) StartReview(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		return
	}
	claim, err := cc.engine.StartReview(c.Request.Context(), c.Param("id"), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

// SubmitAction approves or rejects the claim.
func (cc *ClaimController) SubmitAction(c *gin.Context) {
	id, ok := currentIdentity(c)
	if !ok {
		return
	}
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "action is required")
		return
	}

	claim, err := cc.engine.SubmitAction(c.Request.Context(), services.ActionRequest{
		ClaimID:         c.Param("id"),
		Actor:           id,
		Action:          req.Action,
		Notes:           req.Notes,
		ExpectedVersion: req.ExpectedVersion,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"claim": claim})
}

func (cc *ClaimController) ListApprovals(c *gin.Context) {
	records, err := cc.engine.ListApprovals(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"approvals": records})
}

func (cc *ClaimController) ListHistory(c *gin.Context) {
	entries, err := cc.engine.ListHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
