package hooks

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/storefront/internal/core/domain"
	"github.com/vietddude/storefront/internal/infra/api/apierr"
)

type fakeSource struct {
	listProducts func(ctx context.Context, q domain.ProductQuery) (*domain.Page[domain.Product], error)
	categories   func(ctx context.Context, kind domain.CategoryKind) ([]domain.Category, error)
	cities       func(ctx context.Context) ([]domain.City, error)
	suggest      func(ctx context.Context, query string) (*domain.Suggestions, error)

	mu      sync.Mutex
	queries []string
}

func (f *fakeSource) ListProducts(ctx context.Context, q domain.ProductQuery) (*domain.Page[domain.Product], error) {
	if f.listProducts != nil {
		return f.listProducts(ctx, q)
	}
	return &domain.Page[domain.Product]{
		Items:      []domain.Product{{ID: 1, Name: "Smartphone X"}},
		Pagination: domain.Pagination{Page: max(q.Page, 1), Pages: 3, HasNext: q.Page < 3, HasPrev: q.Page > 1},
	}, nil
}

func (f *fakeSource) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if id == "404" {
		return nil, apierr.HTTP(http.StatusNotFound, "Product not found")
	}
	return &domain.Product{ID: 7, Name: "Floor Lamp"}, nil
}

func (f *fakeSource) ListShops(ctx context.Context, q domain.ShopQuery) (*domain.Page[domain.Shop], error) {
	return &domain.Page[domain.Shop]{Items: []domain.Shop{{ID: 1, Name: "Tech Corner"}}}, nil
}

func (f *fakeSource) GetShop(ctx context.Context, id string) (*domain.Shop, error) {
	return &domain.Shop{ID: 1, Name: "Tech Corner"}, nil
}

func (f *fakeSource) Categories(ctx context.Context, kind domain.CategoryKind) ([]domain.Category, error) {
	if f.categories != nil {
		return f.categories(ctx, kind)
	}
	return []domain.Category{{ID: 1, Name: string(kind)}}, nil
}

func (f *fakeSource) Cities(ctx context.Context) ([]domain.City, error) {
	if f.cities != nil {
		return f.cities(ctx)
	}
	return []domain.City{{ID: 1, Name: "Tashkent"}}, nil
}

func (f *fakeSource) SearchSuggestions(ctx context.Context, query string) (*domain.Suggestions, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	if f.suggest != nil {
		return f.suggest(ctx, query)
	}
	return &domain.Suggestions{Products: []domain.Product{{Name: query}}}, nil
}

func (f *fakeSource) suggestQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func serverDown(string) error {
	return apierr.Server(http.StatusServiceUnavailable, "")
}

func TestInitialData_PartialFailure(t *testing.T) {
	src := &fakeSource{
		categories: func(context.Context, domain.CategoryKind) ([]domain.Category, error) {
			return nil, serverDown("categories")
		},
		cities: func(context.Context) ([]domain.City, error) {
			return nil, apierr.Network("network request failed", errors.New("refused"))
		},
	}

	d := NewInitialData(src, domain.ProductQuery{Page: 1})
	defer d.Close()
	s := wait(t, d.Resource)

	require.NoError(t, s.Err)
	assert.Equal(t, PhaseLoaded, s.Phase)
	require.NotNil(t, s.Data)
	assert.NotNil(t, s.Data.Products)
	assert.Nil(t, s.Data.Categories)
	assert.Nil(t, s.Data.Cities)

	require.Len(t, s.Data.Warnings, 2)
	assert.Equal(t, "categories", s.Data.Warnings[0].Resource)
	assert.Equal(t, "cities", s.Data.Warnings[1].Resource)
	assert.Equal(t, apierr.KindNetwork, apierr.KindOf(s.Data.Warnings[1].Err))
}

func TestInitialData_AllSucceed(t *testing.T) {
	d := NewInitialData(&fakeSource{}, domain.ProductQuery{})
	defer d.Close()
	s := wait(t, d.Resource)

	require.NoError(t, s.Err)
	assert.NotNil(t, s.Data.Products)
	assert.Len(t, s.Data.Categories, 1)
	assert.Len(t, s.Data.Cities, 1)
	assert.Empty(t, s.Data.Warnings)
}

func TestInitialData_AllFail(t *testing.T) {
	src := &fakeSource{
		listProducts: func(context.Context, domain.ProductQuery) (*domain.Page[domain.Product], error) {
			return nil, serverDown("products")
		},
		categories: func(context.Context, domain.CategoryKind) ([]domain.Category, error) {
			return nil, serverDown("categories")
		},
		cities: func(context.Context) ([]domain.City, error) {
			return nil, serverDown("cities")
		},
	}

	d := NewInitialData(src, domain.ProductQuery{})
	defer d.Close()
	s := wait(t, d.Resource)

	require.Error(t, s.Err)
	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Nil(t, s.Data)
	assert.Equal(t, apierr.KindServer, apierr.KindOf(s.Err))
}

func TestInitialData_FetchesConcurrently(t *testing.T) {
	var inFlight, peak atomic.Int32
	track := func() {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		inFlight.Add(-1)
	}

	src := &fakeSource{}
	src.listProducts = func(ctx context.Context, q domain.ProductQuery) (*domain.Page[domain.Product], error) {
		track()
		return &domain.Page[domain.Product]{}, nil
	}
	src.categories = func(context.Context, domain.CategoryKind) ([]domain.Category, error) {
		track()
		return nil, nil
	}
	src.cities = func(context.Context) ([]domain.City, error) {
		track()
		return nil, nil
	}

	d := NewInitialData(src, domain.ProductQuery{})
	defer d.Close()
	wait(t, d.Resource)
	assert.Equal(t, int32(3), peak.Load())
}

func TestProducts_CancellationRace(t *testing.T) {
	releaseSlow := make(chan struct{})
	src := &fakeSource{}
	src.listProducts = func(ctx context.Context, q domain.ProductQuery) (*domain.Page[domain.Product], error) {
		if q.Query == "slow" {
			<-releaseSlow
		}
		return &domain.Page[domain.Product]{Items: []domain.Product{{Name: q.Query}}}, nil
	}

	p := NewProducts(src, domain.ProductQuery{Query: "slow"})
	defer p.Close()
	p.SetFilters(domain.ProductQuery{Query: "fast", Page: 4})

	s := wait(t, p.Resource)
	require.NotNil(t, s.Data)
	assert.Equal(t, "fast", s.Data.Items[0].Name)
	assert.Equal(t, 1, p.Params().Page, "new filters start at page 1")

	close(releaseSlow)
	assert.Never(t, func() bool {
		return p.Snapshot().Data.Items[0].Name != "fast"
	}, 50*time.Millisecond, 5*time.Millisecond)
}

func TestProducts_Paging(t *testing.T) {
	p := NewProducts(&fakeSource{}, domain.ProductQuery{Page: 1, Category: "home"})
	defer p.Close()
	wait(t, p.Resource)

	assert.False(t, p.Prev())
	require.True(t, p.Next())
	s := wait(t, p.Resource)
	assert.Equal(t, 2, s.Data.Pagination.Page)
	assert.Equal(t, "home", p.Params().Category)

	require.True(t, p.Prev())
	s = wait(t, p.Resource)
	assert.Equal(t, 1, s.Data.Pagination.Page)
}

func TestProduct_NotFoundMessage(t *testing.T) {
	p := NewProduct(&fakeSource{}, "404")
	defer p.Close()
	s := wait(t, p.Resource)

	assert.Equal(t, PhaseFailed, s.Phase)
	assert.Equal(t, apierr.UserMessage(s.Err), s.Message())
	assert.NotEmpty(t, s.Message())
}

func TestProduct_EmptyIDStaysIdle(t *testing.T) {
	p := NewProduct(&fakeSource{}, "")
	defer p.Close()
	assert.Equal(t, PhaseIdle, p.Snapshot().Phase)
}

func TestCategoriesAndCities(t *testing.T) {
	c := NewCategories(&fakeSource{}, domain.CategoryKindShops)
	defer c.Close()
	s := wait(t, c.Resource)
	assert.Equal(t, "shops", s.Data[0].Name)

	ci := NewCities(&fakeSource{})
	defer ci.Close()
	cs := wait(t, ci.Resource)
	assert.Equal(t, "Tashkent", cs.Data[0].Name)
}

func TestSuggestions_DebounceCollapsesInput(t *testing.T) {
	src := &fakeSource{}
	s := NewSuggestions(src, 40*time.Millisecond, 2)
	defer s.Close()

	for _, v := range []string{"l", "la", "lap", "lapt", "lapto"} {
		s.SetQuery(v)
		time.Sleep(5 * time.Millisecond)
	}

	require.Eventually(t, func() bool { return len(src.suggestQueries()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return len(src.suggestQueries()) > 1 }, 100*time.Millisecond, 10*time.Millisecond)
	assert.Equal(t, []string{"lapto"}, src.suggestQueries())

	st := wait(t, s.Resource)
	assert.Equal(t, "lapto", st.Data.Products[0].Name)
	assert.False(t, s.Pending())
}

func TestSuggestions_ShortQueryClearsWithoutFetching(t *testing.T) {
	src := &fakeSource{}
	s := NewSuggestions(src, 20*time.Millisecond, 2)
	defer s.Close()

	s.SetQuery("lamp")
	s.SetQuery(" l ")

	st := s.Snapshot()
	assert.Equal(t, PhaseLoaded, st.Phase)
	assert.True(t, st.Data.Empty())
	assert.False(t, s.Pending())

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, src.suggestQueries())
}

func TestSuggestions_NewInputCancelsInFlightFetch(t *testing.T) {
	firstCanceled := make(chan struct{})
	src := &fakeSource{}
	src.suggest = func(ctx context.Context, query string) (*domain.Suggestions, error) {
		if query == "lam" {
			<-ctx.Done()
			close(firstCanceled)
			return nil, apierr.Canceled(ctx.Err())
		}
		return &domain.Suggestions{Shops: []domain.Shop{{Name: query}}}, nil
	}

	s := NewSuggestions(src, 10*time.Millisecond, 2)
	defer s.Close()

	s.SetQuery("lam")
	require.Eventually(t, func() bool { return len(src.suggestQueries()) == 1 }, time.Second, time.Millisecond)

	s.SetQuery("lamp")
	select {
	case <-firstCanceled:
	case <-time.After(time.Second):
		t.Fatal("in-flight fetch was not cancelled")
	}

	require.Eventually(t, func() bool { return len(src.suggestQueries()) == 2 }, time.Second, time.Millisecond)
	st := wait(t, s.Resource)
	assert.NoError(t, st.Err)
	assert.Equal(t, "lamp", st.Data.Shops[0].Name)
}

func TestSuggestions_SubscriberMayCallBackIntoHook(t *testing.T) {
	src := &fakeSource{}
	s := NewSuggestions(src, 10*time.Millisecond, 2)
	defer s.Close()

	var calls atomic.Int32
	s.Subscribe(func(State[*domain.Suggestions]) {
		_ = s.Pending()
		_ = s.Snapshot()
		calls.Add(1)
	})

	s.SetQuery("lamp")
	require.Eventually(t, func() bool { return s.Snapshot().Phase == PhaseLoaded }, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return !s.Pending() }, time.Second, 5*time.Millisecond)

	s.SetQuery("x")
	assert.True(t, s.Snapshot().Data.Empty())
	assert.GreaterOrEqual(t, calls.Load(), int32(3))
}

func TestSuggestions_SubscriberMaySetQuery(t *testing.T) {
	src := &fakeSource{}
	s := NewSuggestions(src, 10*time.Millisecond, 2)
	defer s.Close()

	var once sync.Once
	s.Subscribe(func(st State[*domain.Suggestions]) {
		if st.Phase == PhaseLoaded && !st.Data.Empty() && st.Data.Products[0].Name == "lamp" {
			once.Do(func() { s.SetQuery("lamps") })
		}
	})

	s.SetQuery("lamp")
	require.Eventually(t, func() bool {
		st := s.Snapshot()
		return st.Phase == PhaseLoaded && !st.Data.Empty() && st.Data.Products[0].Name == "lamps"
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"lamp", "lamps"}, src.suggestQueries())

	// Later input is still accepted.
	s.SetQuery("l")
	assert.True(t, s.Snapshot().Data.Empty())
}
