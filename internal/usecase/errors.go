package usecase

import "errors"

var (
	// ErrPermissionDenied - пользователь не разрешил доступ к местоположению.
	ErrPermissionDenied = errors.New("location permission denied")
	// ErrLocationUnavailable - разрешение есть, но местоположение неизвестно.
	ErrLocationUnavailable = errors.New("location unavailable")
	// ErrRegionUnresolved - геокодирование не дало кода страны.
	ErrRegionUnresolved = errors.New("region unresolved")
	// ErrSuperseded - запрос вытеснен более новым запросом и ничего не опубликовал.
	ErrSuperseded = errors.New("request superseded by a newer one")
)
