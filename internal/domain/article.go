package domain

import "time"

// Source описывает издание, опубликовавшее новость.
type Source struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// Article представляет отдельную новость из подборки главных заголовков.
// Неизменяема после получения и живет до следующей успешной загрузки.
type Article struct {
	Source      Source    `json:"source"`
	Author      string    `json:"author,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url,omitempty"`
	URLToImage  string    `json:"url_to_image,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Content     string    `json:"content,omitempty"`
}

// HasImage сообщает, указана ли у новости ссылка на изображение.
func (a Article) HasImage() bool {
	return a.URLToImage != ""
}

// HeadlinesResponse представляет разобранный ответ сервиса заголовков.
// Code и Message заполняются только для ответов со статусом ошибки.
// Articles равен nil, если в ответе нет списка статей, и пуст, если список пуст.
type HeadlinesResponse struct {
	Status       string
	TotalResults int
	Articles     []Article
	Code         string
	Message      string
}

// StatusOK - значение поля status в успешном ответе.
const StatusOK = "ok"

// OK сообщает, является ли ответ успешным.
func (r *HeadlinesResponse) OK() bool {
	return r != nil && r.Status == StatusOK
}

// HasArticles сообщает, был ли в ответе список статей (возможно, пустой).
func (r *HeadlinesResponse) HasArticles() bool {
	return r != nil && r.Articles != nil
}

// HeadlinesQuery - параметры единственного запроса главных заголовков.
type HeadlinesQuery struct {
	Country  RegionCode
	Language LanguageCode
	APIKey   string
}
