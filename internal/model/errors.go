// Package model содержит модели данных и типы ошибок.
package model

import (
	"errors"
	"fmt"
)

// LookupKind определяет вид ошибки поиска в источнике данных
type LookupKind string

const (
	// LookupNotFound - плейлист не найден в источнике
	LookupNotFound LookupKind = "not_found"
	// LookupTransient - временная ошибка источника, повтор на следующем цикле
	LookupTransient LookupKind = "transient"
)

// MalformedRecordError возникает при построении записи трека из некорректных данных
type MalformedRecordError struct {
	Field string
	Value string
}

// Error возвращает строковое представление ошибки
func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed track record: field %q is invalid (value %q)", e.Field, e.Value)
}

// SourceLookupError возникает при ошибке обращения к источнику данных
type SourceLookupError struct {
	Kind  LookupKind
	Query string
	Err   error
}

// Error возвращает строковое представление ошибки
func (e *SourceLookupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("source lookup %q failed (%s): %v", e.Query, e.Kind, e.Err)
	}
	return fmt.Sprintf("source lookup %q failed (%s)", e.Query, e.Kind)
}

// Unwrap возвращает вложенную ошибку
func (e *SourceLookupError) Unwrap() error {
	return e.Err
}

// StorageUnavailableError возникает при ошибке слоя персистентности
type StorageUnavailableError struct {
	Op  string
	Err error
}

// Error возвращает строковое представление ошибки
func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Err)
}

// Unwrap возвращает вложенную ошибку
func (e *StorageUnavailableError) Unwrap() error {
	return e.Err
}

// IsNotFound проверяет, является ли ошибка ошибкой "плейлист не найден"
func IsNotFound(err error) bool {
	var lookupErr *SourceLookupError
	return errors.As(err, &lookupErr) && lookupErr.Kind == LookupNotFound
}

// IsStorageUnavailable проверяет, является ли ошибка ошибкой хранилища
func IsStorageUnavailable(err error) bool {
	var storageErr *StorageUnavailableError
	return errors.As(err, &storageErr)
}
