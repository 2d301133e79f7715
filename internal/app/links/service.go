package links

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"shorty.local/internal/app/links/events"
	"shorty.local/internal/platform/metrics"
)

// MaxCodeAttempts 是单个短链最多尝试的候选短码数量。
const MaxCodeAttempts = 5

// Service 实现短链的全部用例：生成短码（带冲突重试）、跳转计数、按创建者鉴权的修改/删除、批量创建。
//
// Service 本身无状态，所有持久状态都在 Store 里；并发安全性依赖存储层的唯一约束和原子 UPDATE。
type Service struct {
	store     Store
	gen       Generator
	clock     Clock
	misses    MissCache
	known     CodeFilter
	publisher events.Publisher
	tracer    trace.Tracer
}

type Option func(*Service)

func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithMissCache 启用负缓存。
func WithMissCache(c MissCache) Option {
	return func(s *Service) { s.misses = c }
}

// WithCodeFilter 启用布隆过滤器，批量创建时跳过“已知被占用”的候选短码。
func WithCodeFilter(f CodeFilter) Option {
	return func(s *Service) { s.known = f }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func NewService(store Store, gen Generator, opts ...Option) *Service {
	s := &Service{
		store:     store,
		gen:       gen,
		clock:     SystemClock{},
		publisher: events.Discard{},
		tracer:    otel.Tracer("shorty.local/internal/app/links"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Shorten 用随机短码创建短链，caller 为 nil 表示匿名。
//
// 插入命中唯一约束时换一个短码重试，最多 MaxCodeAttempts 次。
func (s *Service) Shorten(ctx context.Context, originalURL string, caller *int64) (Link, error) {
	ctx, span := s.tracer.Start(ctx, "links.Shorten")
	defer span.End()

	if err := ValidateURL(originalURL); err != nil {
		return Link{}, err
	}
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		l := s.newLink(originalURL, s.gen.Generate(), caller)
		err := s.store.Insert(ctx, &l)
		if err == nil {
			s.created(ctx, "random", l)
			return l, nil
		}
		if !errors.Is(err, ErrCodeTaken) {
			return Link{}, fail(span, fmt.Errorf("insert link: %w", err))
		}
		metrics.LinkConflicts.WithLabelValues("shorten").Inc()
	}
	return Link{}, ErrConflict
}

// ShortenWithAlias 使用调用方指定的短码创建短链。
//
// 预检查只是快速失败；真正的唯一性由存储层保证，插入时的唯一约束冲突同样返回 ErrConflict。
func (s *Service) ShortenWithAlias(ctx context.Context, originalURL, alias string, caller *int64) (Link, error) {
	ctx, span := s.tracer.Start(ctx, "links.ShortenWithAlias", trace.WithAttributes(attribute.String("link.code", alias)))
	defer span.End()

	if err := ValidateURL(originalURL); err != nil {
		return Link{}, err
	}
	if err := ValidateAlias(alias); err != nil {
		return Link{}, err
	}
	exists, err := s.store.CodeExists(ctx, alias)
	if err != nil {
		return Link{}, fail(span, fmt.Errorf("check alias: %w", err))
	}
	if exists {
		metrics.LinkConflicts.WithLabelValues("alias").Inc()
		return Link{}, ErrConflict
	}

	l := s.newLink(originalURL, alias, caller)
	if err := s.store.Insert(ctx, &l); err != nil {
		if errors.Is(err, ErrCodeTaken) {
			metrics.LinkConflicts.WithLabelValues("alias").Inc()
			return Link{}, ErrConflict
		}
		return Link{}, fail(span, fmt.Errorf("insert alias: %w", err))
	}
	s.created(ctx, "alias", l)
	return l, nil
}

// PackCreate 批量创建短链，全有或全无。
//
// 每个 URL 最多尝试 MaxCodeAttempts 个候选短码；任意一个 URL 用完次数都会让整批返回 ErrConflict，
// 此时不会写入任何记录。全部短码选好后在一个事务里统一写入。
func (s *Service) PackCreate(ctx context.Context, originalURLs []string, caller *int64) ([]Link, error) {
	ctx, span := s.tracer.Start(ctx, "links.PackCreate", trace.WithAttributes(attribute.Int("links.count", len(originalURLs))))
	defer span.End()

	for _, u := range originalURLs {
		if err := ValidateURL(u); err != nil {
			return nil, err
		}
	}

	batch := make([]*Link, 0, len(originalURLs))
	chosen := make(map[string]struct{}, len(originalURLs))
	for _, u := range originalURLs {
		code, err := s.pickFreeCode(ctx, chosen)
		if err != nil {
			if errors.Is(err, ErrConflict) {
				metrics.LinkConflicts.WithLabelValues("pack").Inc()
				return nil, err
			}
			return nil, fail(span, err)
		}
		chosen[code] = struct{}{}
		l := s.newLink(u, code, caller)
		batch = append(batch, &l)
	}
	if len(batch) == 0 {
		return []Link{}, nil
	}

	if err := s.store.InsertBatch(ctx, batch); err != nil {
		if errors.Is(err, ErrCodeTaken) {
			metrics.LinkConflicts.WithLabelValues("pack").Inc()
			return nil, ErrConflict
		}
		return nil, fail(span, fmt.Errorf("insert pack: %w", err))
	}

	out := make([]Link, 0, len(batch))
	for _, l := range batch {
		s.created(ctx, "pack", *l)
		out = append(out, *l)
	}
	return out, nil
}

func (s *Service) pickFreeCode(ctx context.Context, chosen map[string]struct{}) (string, error) {
	for attempt := 0; attempt < MaxCodeAttempts; attempt++ {
		code := s.gen.Generate()
		if _, dup := chosen[code]; dup {
			continue
		}
		if s.known != nil && s.known.MightExist(code) {
			continue
		}
		exists, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check candidate: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrConflict
}

// Redirect 解析短码并记一次点击，返回原始 URL。
func (s *Service) Redirect(ctx context.Context, code string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "links.Redirect", trace.WithAttributes(attribute.String("link.code", code)))
	defer span.End()

	// 负缓存只是提示：标记可能已过期（别的实例刚创建了同名短码），命中后以存储为准
	if s.misses != nil && s.misses.IsMissing(ctx, code) {
		exists, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return "", fail(span, fmt.Errorf("check code: %w", err))
		}
		if !exists {
			return "", ErrNotFound
		}
		s.misses.Forget(ctx, code)
	}
	now := s.clock.Now()
	url, err := s.store.RecordClick(ctx, code, now)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			if s.misses != nil {
				s.misses.MarkMissing(ctx, code)
			}
			return "", ErrNotFound
		}
		return "", fail(span, fmt.Errorf("record click: %w", err))
	}

	metrics.LinkRedirects.Inc()
	s.publisher.Publish(events.Event{Type: events.LinkClicked, Code: code, At: now})
	return url, nil
}

// SearchByURL 按原始 URL 查找；多条同 URL 时返回最早创建的那条。
func (s *Service) SearchByURL(ctx context.Context, originalURL string) (Link, error) {
	ctx, span := s.tracer.Start(ctx, "links.SearchByURL")
	defer span.End()

	if err := ValidateURL(originalURL); err != nil {
		return Link{}, err
	}
	l, err := s.store.FindByURL(ctx, originalURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Link{}, ErrNotFound
		}
		return Link{}, fail(span, fmt.Errorf("find by url: %w", err))
	}
	return l, nil
}

func (s *Service) GetStats(ctx context.Context, code string) (Stats, error) {
	ctx, span := s.tracer.Start(ctx, "links.GetStats", trace.WithAttributes(attribute.String("link.code", code)))
	defer span.End()

	l, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Stats{}, ErrNotFound
		}
		return Stats{}, fail(span, fmt.Errorf("find by code: %w", err))
	}
	return StatsOf(l), nil
}

// Update 修改原始 URL，只有创建者可以操作。
func (s *Service) Update(ctx context.Context, code, newURL string, caller *int64) (Link, error) {
	ctx, span := s.tracer.Start(ctx, "links.Update", trace.WithAttributes(attribute.String("link.code", code)))
	defer span.End()

	if caller == nil {
		return Link{}, ErrUnauthorized
	}
	if err := ValidateURL(newURL); err != nil {
		return Link{}, err
	}
	if err := s.authorize(ctx, code, *caller); err != nil {
		return Link{}, fail(span, err)
	}
	// 写入同样带 creator_id 条件：检查之后被并发删除时返回 ErrNotFound
	l, err := s.store.UpdateURL(ctx, code, *caller, newURL)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Link{}, ErrNotFound
		}
		return Link{}, fail(span, fmt.Errorf("update link: %w", err))
	}
	s.publisher.Publish(events.Event{Type: events.LinkUpdated, LinkID: l.ID, Code: code, UserID: caller, At: s.clock.Now()})
	return l, nil
}

// Delete 删除短链，只有创建者可以操作。第二次删除返回 ErrNotFound。
func (s *Service) Delete(ctx context.Context, code string, caller *int64) error {
	ctx, span := s.tracer.Start(ctx, "links.Delete", trace.WithAttributes(attribute.String("link.code", code)))
	defer span.End()

	if caller == nil {
		return ErrUnauthorized
	}
	if err := s.authorize(ctx, code, *caller); err != nil {
		return fail(span, err)
	}
	if err := s.store.Delete(ctx, code, *caller); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fail(span, fmt.Errorf("delete link: %w", err))
	}
	s.publisher.Publish(events.Event{Type: events.LinkDeleted, Code: code, UserID: caller, At: s.clock.Now()})
	return nil
}

// ListByOwner 返回 caller 创建的全部短链，顺序由存储决定。
func (s *Service) ListByOwner(ctx context.Context, caller *int64) ([]Link, error) {
	ctx, span := s.tracer.Start(ctx, "links.ListByOwner")
	defer span.End()

	if caller == nil {
		return nil, ErrUnauthorized
	}
	list, err := s.store.ListByCreator(ctx, *caller)
	if err != nil {
		return nil, fail(span, fmt.Errorf("list by creator: %w", err))
	}
	return list, nil
}

func (s *Service) authorize(ctx context.Context, code string, userID int64) error {
	l, err := s.store.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("find by code: %w", err)
	}
	if !l.OwnedBy(userID) {
		return ErrForbidden
	}
	return nil
}

func (s *Service) newLink(originalURL, code string, caller *int64) Link {
	l := Link{
		OriginalURL: originalURL,
		ShortLink:   code,
		CreatedAt:   s.clock.Now(),
	}
	if caller != nil {
		id := *caller
		l.CreatorID = &id
	}
	return l
}

func (s *Service) created(ctx context.Context, kind string, l Link) {
	if s.misses != nil {
		s.misses.Forget(ctx, l.ShortLink)
	}
	if s.known != nil {
		s.known.Add(l.ShortLink)
	}
	metrics.LinksCreated.WithLabelValues(kind).Inc()
	s.publisher.Publish(events.Event{Type: events.LinkCreated, LinkID: l.ID, Code: l.ShortLink, UserID: l.CreatorID, At: l.CreatedAt})
}

// fail 只把非业务错误记到 span 上，业务错误（404/403/...）不算失败。
func fail(span trace.Span, err error) error {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrForbidden),
		errors.Is(err, ErrUnauthorized), errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidInput):
		return err
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
