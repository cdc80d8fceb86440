package untis

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"vplan-backend/lib/restyutil"
	"vplan-backend/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/net/html/charset"
)

var tracer = otel.Tracer("vplan.lib.scrapers.untis")

const (
	DefaultWeekIndexPath   = "frames/navbar.htm"
	DefaultWeekPagePattern = "%02d/w/w00000.htm"
)

type ClientOptions struct {
	BaseUrl string
	// WeekIndexPath is relative to BaseUrl.
	WeekIndexPath string
	// WeekPagePattern is a format string receiving the week index.
	WeekPagePattern  string
	CloudflareBypass bool
	Timeout          time.Duration
	// Dump, when set, receives every raw http exchange.
	Dump restyutil.Output
}

// Client is the only I/O boundary of the scraper, it retrieves the week
// index and the per week pages.
type Client struct {
	BaseUrl *url.URL
	Http    *resty.Client

	weekIndexPath   string
	weekPagePattern string
	tel             telemetry.API
}

func NewClient(opts ClientOptions, tel telemetry.API) (*Client, error) {
	if opts.BaseUrl == "" {
		return nil, fmt.Errorf("a base url was not specified")
	}
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, err
	}
	if opts.WeekIndexPath == "" {
		opts.WeekIndexPath = DefaultWeekIndexPath
	}
	if opts.WeekPagePattern == "" {
		opts.WeekPagePattern = DefaultWeekPagePattern
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}
	// fmt reports verb mismatches inline as "%!"
	if strings.Contains(fmt.Sprintf(opts.WeekPagePattern, 1), "%!") {
		return nil, fmt.Errorf("week page pattern %q must take exactly one integer verb", opts.WeekPagePattern)
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetTimeout(opts.Timeout)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	if opts.CloudflareBypass {
		client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	}
	telemetry.InstrumentResty(client, "vplan.lib.scrapers.untis.http", tel)
	restyutil.DumpResponses(client, opts.Dump)

	return &Client{
		BaseUrl:         baseUrl,
		Http:            client,
		weekIndexPath:   opts.WeekIndexPath,
		weekPagePattern: opts.WeekPagePattern,
		tel:             tel,
	}, nil
}

func (c *Client) get(ctx context.Context, week int, path string) (*goquery.Document, error) {
	res, err := c.Http.R().
		SetContext(ctx).
		Get(path)
	if err != nil {
		return nil, &FetchError{Week: week, Url: path, Err: err}
	}
	if res.IsError() || res.StatusCode() >= 300 {
		return nil, &FetchError{Week: week, Url: res.Request.URL, Status: res.StatusCode()}
	}

	reader, err := charset.NewReader(bytes.NewReader(res.Body()), res.Header().Get("content-type"))
	if err != nil {
		return nil, &FetchError{Week: week, Url: res.Request.URL, Err: fmt.Errorf("decode body: %w", err)}
	}
	doc, err := goquery.NewDocumentFromReader(reader)
	if err != nil {
		return nil, &FetchError{Week: week, Url: res.Request.URL, Err: fmt.Errorf("parse html: %w", err)}
	}
	return doc, nil
}

// FetchWeekIndex returns the published week indices mapped to the two
// digit year suffix of each week.
func (c *Client) FetchWeekIndex(ctx context.Context) (map[int]int, error) {
	ctx, span := tracer.Start(ctx, "FetchWeekIndex")
	defer span.End()

	doc, err := c.get(ctx, IndexPage, c.weekIndexPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch week index")
		return nil, err
	}

	weeks, skipped := ParseWeekIndex(ctx, doc)
	for _, option := range skipped {
		c.tel.ReportWarning("client.parse-week-option", option.Value, option.Text)
	}
	if len(weeks) == 0 {
		c.tel.ReportWarning("client.week-index-empty", c.weekIndexPath)
	}
	span.SetAttributes(attribute.Int("weeks", len(weeks)))

	return weeks, nil
}

// FetchWeekPage returns the raw document of one week.
func (c *Client) FetchWeekPage(ctx context.Context, week int) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "FetchWeekPage")
	defer span.End()
	span.SetAttributes(attribute.Int("week", week))

	doc, err := c.get(ctx, week, fmt.Sprintf(c.weekPagePattern, week))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch week page")
		return nil, err
	}
	return doc, nil
}
