package scraper

import (
	"strings"

	"github.com/go-rod/rod"

	"xscraper/pkg/browser"
)

// SessionFeed adapts a browser session into a Feed by adding article
// discovery on top of the session's navigation and scrolling.
type SessionFeed struct {
	*browser.Session
}

// NewSessionFeed wraps a browser session.
func NewSessionFeed(s *browser.Session) *SessionFeed {
	return &SessionFeed{Session: s}
}

// Articles resolves the rendered tweet containers, walking the locator
// candidates until one of them matches something.
func (f *SessionFeed) Articles() ([]Article, error) {
	els, _, err := f.Matches(ArticleContainers)
	if err != nil {
		return nil, err
	}

	out := make([]Article, 0, len(els))
	for _, el := range els {
		out = append(out, &rodArticle{el: el})
	}
	return out, nil
}

// rodArticle reads tweet fragments out of one rendered article element.
type rodArticle struct {
	el *rod.Element
}

// Body concatenates the language-tagged text fragments of the tweet. Some
// renders split the body across several div[lang] nodes.
func (a *rodArticle) Body() (string, error) {
	els, err := a.el.Elements("div[lang]")
	if err != nil {
		return "", err
	}
	if len(els) == 0 {
		return a.el.Text()
	}

	parts := make([]string, 0, len(els))
	for _, el := range els {
		text, err := el.Text()
		if err != nil {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, " "), nil
}

// AuthorName returns the display name from the tweet header.
func (a *rodArticle) AuthorName() (string, error) {
	el, err := a.el.Element(`div[dir="ltr"] span`)
	if err != nil {
		return "", err
	}
	return el.Text()
}

// AuthorHandle derives the @handle from the profile link of the tweet
// header. The first link is the avatar, the second carries the handle.
func (a *rodArticle) AuthorHandle() (string, error) {
	els, err := a.el.Elements(`a[role="link"]`)
	if err != nil {
		return "", err
	}
	if len(els) < 2 {
		return "", nil
	}

	href, err := els[1].Attribute("href")
	if err != nil || href == nil {
		return "", err
	}
	handle := strings.TrimPrefix(*href, "/")
	if handle == "" || strings.Contains(handle, "/") {
		return "", nil
	}
	return "@" + handle, nil
}

// PublishedAt returns the tweet's timestamp attribute.
func (a *rodArticle) PublishedAt() (string, error) {
	el, err := a.el.Element("time")
	if err != nil {
		return "", err
	}
	datetime, err := el.Attribute("datetime")
	if err != nil || datetime == nil {
		return "", err
	}
	return *datetime, nil
}
