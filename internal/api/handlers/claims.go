package handlers

import (
	"fmt"
	"net/http"
	"time"

	"starhawk-api-server/internal/api/response"
	"starhawk-api-server/internal/events"
	"starhawk-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
)

// listClaims serves the insurer and admin claim lists, filtered by ?status.
func (b *Base) listClaims(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}
	if farmerID := c.Query("farmerId"); farmerID != "" {
		filter["farmerId"] = farmerID
	}
	claims, err := b.Store.Claims.Find(c.Request.Context(), filter, newest(c))
	if err != nil {
		b.internalError(c, err, "list claims")
		return
	}
	response.Success(c, http.StatusOK, nonNil(claims))
}

func (b *Base) getClaim(c *gin.Context) {
	id, ok := objectID(c, "claim")
	if !ok {
		return
	}
	claim, err := b.Store.Claims.FindOne(c.Request.Context(), bson.M{"_id": id})
	if err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "Claim not found")
			return
		}
		b.internalError(c, err, "load claim")
		return
	}
	response.Success(c, http.StatusOK, claim)
}

// updateClaim applies exactly the submitted fields and records the reviewer.
// The farmer is notified when the status changes.
func (b *Base) updateClaim(c *gin.Context) {
	id, ok := objectID(c, "claim")
	if !ok {
		return
	}
	var req models.UpdateClaimRequest
	if !bind(c, &req) {
		return
	}
	set := req.ToSet(time.Now().UTC())
	if set == nil {
		response.Error(c, http.StatusBadRequest, "No fields to update")
		return
	}
	set["reviewedBy"] = currentUserID(c)

	ctx := c.Request.Context()
	before, err := b.Store.Claims.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		if isNotFound(err) {
			response.Error(c, http.StatusNotFound, "Claim not found")
			return
		}
		b.internalError(c, err, "load claim")
		return
	}

	if _, err := b.Store.Claims.UpdateOne(ctx, bson.M{"_id": id}, set); err != nil {
		b.internalError(c, err, "update claim")
		return
	}
	claim, err := b.Store.Claims.FindOne(ctx, bson.M{"_id": id})
	if err != nil {
		b.internalError(c, err, "reload claim")
		return
	}

	if claim.Status != before.Status {
		b.publish(ctx, events.New(events.ClaimStatusUpdated, claim.FarmerID, "Claim status updated",
			fmt.Sprintf("Claim %s is now %s", claim.ClaimNumber, claim.Status), claim.ClaimNumber))
	}
	response.SuccessMessage(c, http.StatusOK, "Claim updated successfully", claim)
}
