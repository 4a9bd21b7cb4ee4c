package match

import (
	"context"
	"strconv"
	"time"

	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oggyb/anonchat/internal/app"
	"github.com/oggyb/anonchat/internal/domain"
	svcErr "github.com/oggyb/anonchat/internal/errors"
	"github.com/oggyb/anonchat/internal/matchmaker"
	"github.com/oggyb/anonchat/internal/server"
	"github.com/oggyb/anonchat/internal/session"
)

const (
	keySessionsDay = "stats:sessions:24h"
	statsTTL       = time.Minute
)

// Service implements the Match gRPC API on top of the in-memory core.
// It never sends anything to users; callers notify them from the response.
type Service struct {
	appCtx *app.AppContext
}

var _ MatchServer = (*Service)(nil)

func NewMatchService(appCtx *app.AppContext) *Service {
	return &Service{appCtx: appCtx}
}

// SetProfileField stores one profile attribute.
//
// Example:
//
//	{"user_id": "42", "field": "age", "value": "27"}
func (s *Service) SetProfileField(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := userIDArg(req, "user_id")
	if err != nil {
		return nil, err
	}
	raw, _ := stringArg(req, "field")
	field, err := domain.ParseField(raw)
	if err != nil {
		return nil, svcErr.InvalidArgument(err.Error())
	}
	value, _ := stringArg(req, "value")

	if err := s.appCtx.Profiles.SetField(ctx, id, field, value); err != nil {
		s.appCtx.Logger.Debug("SetProfileField rejected", "user_id", id, "field", field, "err", err)
		return nil, svcErr.Map(err)
	}
	return s.profileResponse(id)
}

// GetProfile returns the profile plus premium state of user_id.
func (s *Service) GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := userIDArg(req, "user_id")
	if err != nil {
		return nil, err
	}
	return s.profileResponse(id)
}

func (s *Service) profileResponse(id domain.UserID) (*structpb.Struct, error) {
	p := s.appCtx.Profiles.Get(id)
	st := s.appCtx.Premium.State(id)
	next, _ := p.Missing()

	resp := map[string]interface{}{
		"user_id":      idString(id),
		"gender":       p.Gender,
		"age":          p.Age,
		"location":     p.Location,
		"interest":     p.Interest,
		"complete":     p.IsComplete(),
		"next_missing": string(next),
		"premium":      s.appCtx.Premium.IsPremium(id),
		"invite_count": st.InviteCount,
	}
	if !st.PremiumUntil.IsZero() {
		resp["premium_until"] = st.PremiumUntil.UTC().Format(time.RFC3339)
	}
	return newStruct(resp)
}

// RequestMatch pairs user_id or queues it.
//
// Behavior:
//   - filter_field/filter_value are optional; any filter requires premium.
//   - status is "matched" with partner_id and session_id, or "queued".
//
// Example:
//
//	{"user_id": "1", "filter_value": "Female"}
func (s *Service) RequestMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := userIDArg(req, "user_id")
	if err != nil {
		return nil, err
	}
	filter, err := filterArg(req)
	if err != nil {
		return nil, err
	}
	f := domain.AnyFilter
	if filter != nil {
		f = *filter
	}

	s.appCtx.Logger.Debug("RequestMatch called", "user_id", id, "filter", f.String())

	res, err := s.appCtx.Matchmaker.RequestMatch(id, f)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	return s.matchResponse(ctx, res, nil)
}

// CancelSearch leaves the queue. Cancelling while not queued succeeds.
func (s *Service) CancelSearch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := userIDArg(req, "user_id")
	if err != nil {
		return nil, err
	}
	was := s.appCtx.Matchmaker.CancelSearch(id)
	return newStruct(map[string]interface{}{"was_queued": was})
}

// Next ends the current session and searches again. Without filter fields
// the previous filter is reused.
func (s *Service) Next(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := userIDArg(req, "user_id")
	if err != nil {
		return nil, err
	}
	filter, err := filterArg(req)
	if err != nil {
		return nil, err
	}

	res, err := s.appCtx.Matchmaker.Next(id, filter)
	if err != nil {
		former, ok := res.FormerPartner(id)
		if !ok {
			return nil, svcErr.Map(err)
		}
		s.appCtx.Logger.Info("Next closed session but search was rejected", "user_id", id, "former_partner", former, "err", err)
		return nil, closedDetail(svcErr.Map(err), former, res.Closed.ID)
	}

	extra := map[string]interface{}{}
	if former, ok := res.FormerPartner(id); ok {
		extra["former_partner_id"] = idString(former)
		extra["closed_session_id"] = string(res.Closed.ID)
	}
	return s.matchResponse(ctx, res.Match, extra)
}

// Stop ends the session or cancels the search, whichever applies.
func (s *Service) Stop(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := userIDArg(req, "user_id")
	if err != nil {
		return nil, err
	}
	res := s.appCtx.Matchmaker.Stop(id)

	resp := map[string]interface{}{
		"had_session": res.HadSession,
		"was_queued":  res.WasQueued,
	}
	if res.HadSession {
		resp["former_partner_id"] = idString(res.Closed.Other(id))
		resp["closed_session_id"] = string(res.Closed.ID)
	}
	return newStruct(resp)
}

// Partner reports the current session of user_id.
func (s *Service) Partner(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := userIDArg(req, "user_id")
	if err != nil {
		return nil, err
	}
	info, ok := s.appCtx.Sessions.Get(id)
	resp := map[string]interface{}{
		"active":    ok,
		"searching": s.appCtx.Matchmaker.IsQueued(id),
	}
	if ok {
		resp["partner_id"] = idString(info.Other(id))
		resp["session_id"] = string(info.ID)
		resp["since"] = info.CreatedAt.UTC().Format(time.RFC3339)
	}
	return newStruct(resp)
}

// GrantPremium extends user_id's premium window. duration is a Go duration
// string and defaults to the configured referral reward.
func (s *Service) GrantPremium(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := userIDArg(req, "user_id")
	if err != nil {
		return nil, err
	}
	d := s.appCtx.Premium.Duration()
	if raw, ok := stringArg(req, "duration"); ok && raw != "" {
		d, err = time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return nil, svcErr.InvalidArgument("duration must be a positive Go duration like 24h")
		}
	}

	if err := s.appCtx.Premium.GrantPremium(ctx, id, d); err != nil {
		return nil, svcErr.Map(err)
	}
	until := s.appCtx.Premium.State(id).PremiumUntil
	grantedBy := "unauthenticated"
	if claims, ok := server.ClaimsFrom(ctx); ok {
		grantedBy = claims.Subject
	}
	s.appCtx.Logger.Info("GrantPremium", "user_id", id, "duration", d.String(), "granted_by", grantedBy)
	return newStruct(map[string]interface{}{
		"premium_until": until.UTC().Format(time.RFC3339),
	})
}

// Stats returns live counters. sessions_24h is cache-first:
//  1. Attempts to read from Redis (stats:sessions:24h).
//  2. On miss, counts archived sessions in the DB and caches for a minute.
//
// With user_id set, user_sessions reports that user's archived sessions.
func (s *Service) Stats(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	matches, err := s.appCtx.RedisCache.Matches(ctx)
	if err != nil {
		s.appCtx.Logger.Warn("read match counter failed", "err", err)
	}

	day, err := s.sessionsLastDay(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}
	complete, err := s.appCtx.ProfileRepo.CountComplete(ctx)
	if err != nil {
		return nil, svcErr.Map(err)
	}

	resp := map[string]interface{}{
		"queue_len":         s.appCtx.Matchmaker.QueueLen(),
		"active_sessions":   s.appCtx.Sessions.Count(),
		"profiles":          s.appCtx.Profiles.Count(),
		"profiles_complete": complete,
		"matches_total":     matches,
		"sessions_24h":      day,
	}

	if _, ok := req.GetFields()["user_id"]; ok {
		id, err := userIDArg(req, "user_id")
		if err != nil {
			return nil, err
		}
		n, err := s.appCtx.History.CountByUser(ctx, id)
		if err != nil {
			return nil, svcErr.Map(err)
		}
		resp["user_sessions"] = n
	}
	return newStruct(resp)
}

func (s *Service) sessionsLastDay(ctx context.Context) (int64, error) {
	if cached, _ := s.appCtx.RedisCache.Get(ctx, keySessionsDay); cached != "" {
		if n, err := strconv.ParseInt(cached, 10, 64); err == nil {
			return n, nil
		}
	}

	n, err := s.appCtx.History.CountSince(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		return 0, err
	}
	_ = s.appCtx.RedisCache.Set(ctx, keySessionsDay, strconv.FormatInt(n, 10), statsTTL)
	return n, nil
}

func (s *Service) matchResponse(ctx context.Context, res matchmaker.MatchResult, extra map[string]interface{}) (*structpb.Struct, error) {
	resp := map[string]interface{}{
		"status": res.Status.String(),
		"filter": res.Filter.String(),
	}
	if res.Status == matchmaker.Matched {
		s.appCtx.CountMatch(ctx)
		resp["partner_id"] = idString(res.Partner)
		resp["session_id"] = string(res.SessionID)
	}
	for k, v := range extra {
		resp[k] = v
	}
	return newStruct(resp)
}

// closedDetail attaches the session Next already closed to a rejected search,
// so the caller can still tell the former partner.
func closedDetail(err error, former domain.UserID, sid session.ID) error {
	detail, derr := newStruct(map[string]interface{}{
		"former_partner_id": idString(former),
		"closed_session_id": string(sid),
	})
	if derr != nil {
		return err
	}
	st, derr := status.Convert(err).WithDetails(detail)
	if derr != nil {
		return err
	}
	return st.Err()
}
